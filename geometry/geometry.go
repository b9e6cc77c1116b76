// Package geometry provides the distance, angle and RMSD primitives shared
// by the consensus, merge and validation layers.
package geometry

import (
	"math"

	"github.com/BioMeshLabs/foldswarm/core"
)

// Distance returns the Euclidean distance between two coordinates, in Å.
func Distance(a, b core.Coordinate) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Angle returns the angle at center between the vectors center->a and
// center->c, in degrees. Degenerate (zero-length) vectors yield 0.
func Angle(a, center, c core.Coordinate) float64 {
	v1x, v1y, v1z := a.X-center.X, a.Y-center.Y, a.Z-center.Z
	v2x, v2y, v2z := c.X-center.X, c.Y-center.Y, c.Z-center.Z

	dot := v1x*v2x + v1y*v2y + v1z*v2z
	mag1 := math.Sqrt(v1x*v1x + v1y*v1y + v1z*v1z)
	mag2 := math.Sqrt(v2x*v2x + v2y*v2y + v2z*v2z)
	if mag1 == 0 || mag2 == 0 {
		return 0
	}

	cos := dot / (mag1 * mag2)
	// Clamp against rounding drift before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// Centroid returns the mean position of the given atoms. An empty slice
// yields the origin.
func Centroid(atoms []core.Atom) core.Coordinate {
	if len(atoms) == 0 {
		return core.Coordinate{}
	}
	var c core.Coordinate
	for _, a := range atoms {
		c.X += a.Coordinate.X
		c.Y += a.Coordinate.Y
		c.Z += a.Coordinate.Z
	}
	n := float64(len(atoms))
	return core.Coordinate{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// RMSD returns the root-mean-square deviation between two atom sets.
//
// The sets must be the same length; otherwise +Inf is returned immediately,
// even when the keyed atoms would otherwise match. Atoms are paired by
// (atomName, residueNumber); unpaired atoms are skipped. If no pair matches,
// the result is +Inf.
func RMSD(atoms1, atoms2 []core.Atom) float64 {
	if len(atoms1) != len(atoms2) {
		return math.Inf(1)
	}

	byKey := make(map[atomKey]core.Atom, len(atoms2))
	for _, a := range atoms2 {
		byKey[atomKey{a.AtomName, a.ResidueNumber}] = a
	}

	var sumSq float64
	count := 0
	for _, a := range atoms1 {
		b, ok := byKey[atomKey{a.AtomName, a.ResidueNumber}]
		if !ok {
			continue
		}
		d := Distance(a.Coordinate, b.Coordinate)
		sumSq += d * d
		count++
	}
	if count == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sumSq / float64(count))
}

type atomKey struct {
	name    string
	residue int
}
