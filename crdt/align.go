package crdt

import (
	"log"

	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/geometry"
)

// AlignTranslationOnly translates target so the centroid of its CA atoms
// matched by residue number coincides with the reference's. With fewer than
// 3 matched pairs the alignment is underdetermined and target is returned
// unchanged with a warning.
//
// No rotation is solved. This is a known limitation: the result does not
// minimize RMSD in the general case, and downstream RMSD consumers depend
// on the translation-only behavior.
func AlignTranslationOnly(reference, target core.Structure) core.Structure {
	refByResidue := make(map[int]core.Atom)
	for _, a := range reference.CAAtoms() {
		refByResidue[a.ResidueNumber] = a
	}

	var refMatched, targetMatched []core.Atom
	for _, a := range target.CAAtoms() {
		if r, ok := refByResidue[a.ResidueNumber]; ok {
			refMatched = append(refMatched, r)
			targetMatched = append(targetMatched, a)
		}
	}
	if len(targetMatched) < 3 {
		log.Printf("Alignment underdetermined for %s: %d matched CA pairs, returning target unchanged",
			target.SequenceID, len(targetMatched))
		return target
	}

	refCentroid := geometry.Centroid(refMatched)
	targetCentroid := geometry.Centroid(targetMatched)
	dx := refCentroid.X - targetCentroid.X
	dy := refCentroid.Y - targetCentroid.Y
	dz := refCentroid.Z - targetCentroid.Z

	aligned := target
	aligned.Atoms = make([]core.Atom, len(target.Atoms))
	for i, a := range target.Atoms {
		a.Coordinate.X += dx
		a.Coordinate.Y += dy
		a.Coordinate.Z += dz
		aligned.Atoms[i] = a
	}
	return aligned
}
