// Package validation checks merged or consensus structures for geometric
// and physical plausibility. Validation never fails hard: every finding
// lands in the result's errors or warnings lists.
package validation

import (
	"fmt"
	"sort"

	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/geometry"
)

// bondSpec is an ideal bond length with tolerance, in Å.
type bondSpec struct {
	a, b      string
	ideal     float64
	tolerance float64
}

// intra-residue backbone bonds
var backboneBonds = []bondSpec{
	{"N", "CA", 1.46, 0.1},
	{"CA", "C", 1.52, 0.1},
	{"C", "O", 1.23, 0.1},
}

// peptideBond links C(i) to N(i+1).
var peptideBond = bondSpec{"C", "N", 1.33, 0.1}

// angleSpec is an ideal backbone angle with tolerance, in degrees.
type angleSpec struct {
	a, center, c string
	ideal        float64
	tolerance    float64
}

// Three backbone angles are tabulated but only N-CA-C is currently
// evaluated; see checkAngles.
var backboneAngles = []angleSpec{
	{"N", "CA", "C", 111.0, 5.0},
	{"CA", "C", "N", 117.2, 5.0},
	{"C", "N", "CA", 121.7, 5.0},
}

// Van der Waals radii keyed by the first character of the atom name, in Å.
var vdwRadii = map[byte]float64{
	'C': 1.70,
	'N': 1.55,
	'O': 1.52,
	'S': 1.80,
	'H': 1.20,
}

const (
	defaultVDWRadius  = 1.70
	clashFactor       = 0.8
	maxClashWarnings  = 10
	violationsToFail  = 5
	clashEnergyWeight = 1.0
	bondEnergyWeight  = 500.0
)

// Validate runs every plausibility check over the structure and returns the
// aggregated findings. It is a pure function and never panics or errors.
func Validate(structure core.Structure) core.ValidationResult {
	result := core.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	residues := structure.AtomsByResidue()

	checkBonds(residues, &result)
	checkAngles(residues, &result)
	checkClashes(structure.Atoms, &result)
	checkCompleteness(residues, &result)
	result.Energy = estimateEnergy(residues, result.Clashes)

	// Clash count deliberately does not gate validity; a clashing but
	// otherwise well-bonded structure is still accepted.
	result.IsValid = len(result.Errors) == 0 &&
		result.BondViolations < violationsToFail &&
		result.AngleViolations < violationsToFail
	return result
}

func atomIn(atoms []core.Atom, name string) (core.Atom, bool) {
	for _, a := range atoms {
		if a.AtomName == name {
			return a, true
		}
	}
	return core.Atom{}, false
}

func sortedResidueNumbers(residues map[int][]core.Atom) []int {
	numbers := make([]int, 0, len(residues))
	for n := range residues {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// checkBonds verifies the intra-residue backbone bonds and the peptide bond
// to the next residue.
func checkBonds(residues map[int][]core.Atom, result *core.ValidationResult) {
	for _, n := range sortedResidueNumbers(residues) {
		atoms := residues[n]
		for _, bond := range backboneBonds {
			a, okA := atomIn(atoms, bond.a)
			b, okB := atomIn(atoms, bond.b)
			if !okA || !okB {
				continue
			}
			d := geometry.Distance(a.Coordinate, b.Coordinate)
			if d < bond.ideal-bond.tolerance || d > bond.ideal+bond.tolerance {
				result.BondViolations++
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"residue %d: %s-%s bond %.2fÅ outside %.2f±%.2fÅ",
					n, bond.a, bond.b, d, bond.ideal, bond.tolerance))
			}
		}

		c, okC := atomIn(atoms, peptideBond.a)
		next, okNext := residues[n+1]
		if !okC || !okNext {
			continue
		}
		nNext, okN := atomIn(next, peptideBond.b)
		if !okN {
			continue
		}
		d := geometry.Distance(c.Coordinate, nNext.Coordinate)
		if d < peptideBond.ideal-peptideBond.tolerance || d > peptideBond.ideal+peptideBond.tolerance {
			result.BondViolations++
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"residues %d-%d: peptide bond %.2fÅ outside %.2f±%.2fÅ",
				n, n+1, d, peptideBond.ideal, peptideBond.tolerance))
		}
	}
}

// checkAngles evaluates only the N-CA-C entry of the angle table. The other
// two tabulated angles span residue boundaries and are not checked; keep it
// that way until the narrowing is resolved one way or the other.
func checkAngles(residues map[int][]core.Atom, result *core.ValidationResult) {
	spec := backboneAngles[0] // N-CA-C
	for _, n := range sortedResidueNumbers(residues) {
		atoms := residues[n]
		a, okA := atomIn(atoms, spec.a)
		center, okCenter := atomIn(atoms, spec.center)
		c, okC := atomIn(atoms, spec.c)
		if !okA || !okCenter || !okC {
			continue
		}
		angle := geometry.Angle(a.Coordinate, center.Coordinate, c.Coordinate)
		if angle < spec.ideal-spec.tolerance || angle > spec.ideal+spec.tolerance {
			result.AngleViolations++
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"residue %d: %s-%s-%s angle %.1f° outside %.1f±%.1f°",
				n, spec.a, spec.center, spec.c, angle, spec.ideal, spec.tolerance))
		}
	}
}

func vdwRadius(atomName string) float64 {
	if atomName == "" {
		return defaultVDWRadius
	}
	if r, ok := vdwRadii[atomName[0]]; ok {
		return r
	}
	return defaultVDWRadius
}

// checkClashes finds steric clashes between atoms of non-adjacent residues.
// Detailed warnings are capped at maxClashWarnings plus a summary line.
func checkClashes(atoms []core.Atom, result *core.ValidationResult) {
	detailed := 0
	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			sep := atoms[i].ResidueNumber - atoms[j].ResidueNumber
			if sep < 0 {
				sep = -sep
			}
			if sep <= 1 {
				continue
			}
			d := geometry.Distance(atoms[i].Coordinate, atoms[j].Coordinate)
			limit := clashFactor * (vdwRadius(atoms[i].AtomName) + vdwRadius(atoms[j].AtomName))
			if d >= limit {
				continue
			}
			result.Clashes++
			if detailed < maxClashWarnings {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"clash: %s/%d %s vs %s/%d %s at %.2fÅ (limit %.2fÅ)",
					atoms[i].ResidueName, atoms[i].ResidueNumber, atoms[i].AtomName,
					atoms[j].ResidueName, atoms[j].ResidueNumber, atoms[j].AtomName, d, limit))
				detailed++
			}
		}
	}
	if result.Clashes > detailed {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"%d additional clashes not listed", result.Clashes-detailed))
	}
}

// checkCompleteness warns (never errors) per residue missing a backbone atom.
func checkCompleteness(residues map[int][]core.Atom, result *core.ValidationResult) {
	for _, n := range sortedResidueNumbers(residues) {
		atoms := residues[n]
		for _, name := range []string{"N", "CA", "C", "O"} {
			if _, ok := atomIn(atoms, name); !ok {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"residue %d: missing backbone atom %s", n, name))
			}
		}
	}
}

// estimateEnergy combines a unit penalty per clash with harmonic penalties
// on the CA-N and CA-C bond lengths.
func estimateEnergy(residues map[int][]core.Atom, clashes int) float64 {
	energy := float64(clashes) * clashEnergyWeight
	for _, atoms := range residues {
		caAtom, okCA := atomIn(atoms, "CA")
		nAtom, okN := atomIn(atoms, "N")
		cAtom, okC := atomIn(atoms, "C")
		if !okCA || !okN || !okC {
			continue
		}
		dN := geometry.Distance(caAtom.Coordinate, nAtom.Coordinate) - 1.46
		dC := geometry.Distance(caAtom.Coordinate, cAtom.Coordinate) - 1.52
		energy += bondEnergyWeight * (dN*dN + dC*dC)
	}
	return energy
}
