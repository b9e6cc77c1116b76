package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/BioMeshLabs/foldswarm/core"
)

// idealBackbone builds a chain with every checked bond and angle at its
// ideal value: N-CA 1.46Å along x, CA-C 1.52Å at 111° from the CA->N
// vector, C-O 1.23Å in z, and the next N 1.33Å along x from C.
func idealBackbone(residues int) core.Structure {
	theta := 111.0 * math.Pi / 180
	var atoms []core.Atom
	id := 1
	add := func(name string, residue int, c core.Coordinate) {
		atoms = append(atoms, core.Atom{
			AtomID:        id,
			AtomName:      name,
			ResidueNumber: residue,
			ResidueName:   "GLY",
			ChainID:       "A",
			Coordinate:    c,
		})
		id++
	}

	n := core.Coordinate{}
	for r := 1; r <= residues; r++ {
		ca := core.Coordinate{X: n.X + 1.46, Y: n.Y, Z: n.Z}
		c := core.Coordinate{
			X: ca.X - 1.52*math.Cos(theta),
			Y: ca.Y + 1.52*math.Sin(theta),
			Z: ca.Z,
		}
		o := core.Coordinate{X: c.X, Y: c.Y, Z: c.Z + 1.23}
		add("N", r, n)
		add("CA", r, ca)
		add("C", r, c)
		add("O", r, o)
		n = core.Coordinate{X: c.X + 1.33, Y: c.Y, Z: c.Z}
	}

	return core.Structure{SequenceID: "ideal", Atoms: atoms}
}

func TestValidateIdealStructure(t *testing.T) {
	result := Validate(idealBackbone(5))

	if !result.IsValid {
		t.Errorf("ideal structure must be valid, findings: %v %v", result.Errors, result.Warnings)
	}
	if result.BondViolations != 0 {
		t.Errorf("expected 0 bond violations, got %d", result.BondViolations)
	}
	if result.AngleViolations != 0 {
		t.Errorf("expected 0 angle violations, got %d", result.AngleViolations)
	}
	if result.Clashes != 0 {
		t.Errorf("expected 0 clashes, got %d", result.Clashes)
	}
	if result.Energy > 1e-6 {
		t.Errorf("ideal structure energy should be ~0, got %f", result.Energy)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestValidateClashDoesNotGateValidity(t *testing.T) {
	s := idealBackbone(5)
	// Park a foreign atom 2.3Å under residue 4's CA: inside the C-C clash
	// limit (2.72Å) but clear of every other atom. Tagged residue 1 so the
	// pair passes the |Δresidue|>1 filter.
	ca4 := s.Atoms[(4-1)*4+1]
	s.Atoms = append(s.Atoms, core.Atom{
		AtomID:        len(s.Atoms) + 1,
		AtomName:      "CB",
		ResidueNumber: 1,
		ResidueName:   "GLY",
		ChainID:       "A",
		Coordinate: core.Coordinate{
			X: ca4.Coordinate.X,
			Y: ca4.Coordinate.Y,
			Z: ca4.Coordinate.Z - 2.3,
		},
	})

	result := Validate(s)
	if result.Clashes != 1 {
		t.Fatalf("expected exactly 1 clash, got %d (%v)", result.Clashes, result.Warnings)
	}
	// Regression guard: clash count alone never invalidates a structure.
	if !result.IsValid {
		t.Error("a clashing but well-bonded structure must remain valid")
	}
	if math.Abs(result.Energy-1.0) > 1e-6 {
		t.Errorf("one clash should contribute energy 1.0, got %f", result.Energy)
	}
}

func TestValidateBondViolations(t *testing.T) {
	s := idealBackbone(5)
	// Stretch every CA 0.5Å in x: breaks N-CA and CA-C in all 5 residues.
	for i := range s.Atoms {
		if s.Atoms[i].AtomName == "CA" {
			s.Atoms[i].Coordinate.X += 0.5
		}
	}

	result := Validate(s)
	if result.BondViolations < 5 {
		t.Fatalf("expected at least 5 bond violations, got %d", result.BondViolations)
	}
	if result.IsValid {
		t.Error("5+ bond violations must invalidate the structure")
	}
	if result.Energy <= 0 {
		t.Errorf("stretched bonds must raise the energy estimate, got %f", result.Energy)
	}
}

func TestValidateFewViolationsStillValid(t *testing.T) {
	s := idealBackbone(5)
	// Break a single C-O bond; 1 violation is under the threshold of 5.
	for i := range s.Atoms {
		if s.Atoms[i].AtomName == "O" && s.Atoms[i].ResidueNumber == 2 {
			s.Atoms[i].Coordinate.Z += 1.0
		}
	}

	result := Validate(s)
	if result.BondViolations != 1 {
		t.Fatalf("expected 1 bond violation, got %d", result.BondViolations)
	}
	if !result.IsValid {
		t.Error("a single bond violation must not invalidate the structure")
	}
}

func TestValidateAngleViolation(t *testing.T) {
	s := idealBackbone(3)
	// Fold residue 2's C back toward N: collapses the N-CA-C angle.
	for i := range s.Atoms {
		if s.Atoms[i].AtomName == "C" && s.Atoms[i].ResidueNumber == 2 {
			n := s.Atoms[(2-1)*4].Coordinate
			s.Atoms[i].Coordinate = core.Coordinate{X: n.X + 0.1, Y: n.Y + 1.517, Z: n.Z}
		}
	}

	result := Validate(s)
	if result.AngleViolations == 0 {
		t.Error("expected an N-CA-C angle violation")
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "N-CA-C") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an N-CA-C warning, got %v", result.Warnings)
	}
}

func TestValidateCompletenessWarnings(t *testing.T) {
	s := idealBackbone(3)
	// Drop residue 2's O.
	var atoms []core.Atom
	for _, a := range s.Atoms {
		if a.AtomName == "O" && a.ResidueNumber == 2 {
			continue
		}
		atoms = append(atoms, a)
	}
	s.Atoms = atoms

	result := Validate(s)
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "residue 2: missing backbone atom O") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a completeness warning, got %v", result.Warnings)
	}
	// Completeness findings are warnings, never errors.
	if len(result.Errors) != 0 {
		t.Errorf("completeness must not produce errors, got %v", result.Errors)
	}
}

func TestValidateClashWarningCap(t *testing.T) {
	// A tight grid of far-apart residue numbers produces a pile of
	// clashes; details are capped at 10 plus a summary line.
	var atoms []core.Atom
	for i := 0; i < 8; i++ {
		atoms = append(atoms, core.Atom{
			AtomID:        i + 1,
			AtomName:      "CA",
			ResidueNumber: i*10 + 1,
			ResidueName:   "GLY",
			ChainID:       "A",
			Coordinate:    core.Coordinate{X: float64(i) * 0.1},
		})
	}
	result := Validate(core.Structure{Atoms: atoms})

	if result.Clashes <= 10 {
		t.Fatalf("test needs more than 10 clashes, got %d", result.Clashes)
	}
	detailed := 0
	summary := 0
	for _, w := range result.Warnings {
		if strings.HasPrefix(w, "clash:") {
			detailed++
		}
		if strings.Contains(w, "additional clashes") {
			summary++
		}
	}
	if detailed != 10 {
		t.Errorf("expected 10 detailed clash warnings, got %d", detailed)
	}
	if summary != 1 {
		t.Errorf("expected one summary line, got %d", summary)
	}
}
