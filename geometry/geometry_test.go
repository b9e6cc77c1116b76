package geometry

import (
	"math"
	"testing"

	"github.com/BioMeshLabs/foldswarm/core"
)

func ca(residue int, x, y, z float64) core.Atom {
	return core.Atom{
		AtomName:      "CA",
		ResidueNumber: residue,
		ResidueName:   "ALA",
		ChainID:       "A",
		Coordinate:    core.Coordinate{X: x, Y: y, Z: z},
	}
}

func TestDistance(t *testing.T) {
	a := core.Coordinate{X: 0, Y: 0, Z: 0}
	b := core.Coordinate{X: 3, Y: 4, Z: 0}
	if d := Distance(a, b); d != 5 {
		t.Errorf("expected 5, got %f", d)
	}
	if d := Distance(a, a); d != 0 {
		t.Errorf("distance to self should be 0, got %f", d)
	}
}

func TestAngle(t *testing.T) {
	center := core.Coordinate{X: 0, Y: 0, Z: 0}

	t.Run("right angle", func(t *testing.T) {
		got := Angle(core.Coordinate{X: 1}, center, core.Coordinate{Y: 1})
		if math.Abs(got-90) > 1e-9 {
			t.Errorf("expected 90, got %f", got)
		}
	})

	t.Run("straight line", func(t *testing.T) {
		got := Angle(core.Coordinate{X: 1}, center, core.Coordinate{X: -1})
		if math.Abs(got-180) > 1e-9 {
			t.Errorf("expected 180, got %f", got)
		}
	})

	t.Run("degenerate vector", func(t *testing.T) {
		if got := Angle(center, center, core.Coordinate{X: 1}); got != 0 {
			t.Errorf("expected 0 for zero-length vector, got %f", got)
		}
	})
}

func TestCentroid(t *testing.T) {
	atoms := []core.Atom{
		ca(1, 0, 0, 0),
		ca(2, 2, 0, 0),
		ca(3, 1, 3, 0),
	}
	c := Centroid(atoms)
	if c.X != 1 || c.Y != 1 || c.Z != 0 {
		t.Errorf("unexpected centroid %+v", c)
	}

	if c := Centroid(nil); c != (core.Coordinate{}) {
		t.Errorf("empty set should yield origin, got %+v", c)
	}
}

func TestRMSD(t *testing.T) {
	a := []core.Atom{ca(1, 0, 0, 0), ca(2, 1, 0, 0)}

	t.Run("identical sets", func(t *testing.T) {
		if got := RMSD(a, a); got != 0 {
			t.Errorf("rmsd(A,A) should be 0, got %f", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		b := []core.Atom{ca(1, 0, 1, 0), ca(2, 1, 1, 0)}
		if RMSD(a, b) != RMSD(b, a) {
			t.Errorf("rmsd should be symmetric")
		}
	})

	t.Run("uniform offset", func(t *testing.T) {
		b := []core.Atom{ca(1, 0, 0, 2), ca(2, 1, 0, 2)}
		if got := RMSD(a, b); math.Abs(got-2) > 1e-9 {
			t.Errorf("expected 2, got %f", got)
		}
	})

	t.Run("length mismatch is infinite", func(t *testing.T) {
		// Strict length equality applies even when every atom of the
		// shorter set has a keyed match in the longer one.
		b := []core.Atom{ca(1, 0, 0, 0), ca(2, 1, 0, 0), ca(3, 2, 0, 0)}
		if got := RMSD(a, b); !math.IsInf(got, 1) {
			t.Errorf("expected +Inf, got %f", got)
		}
	})

	t.Run("no matched pairs is infinite", func(t *testing.T) {
		b := []core.Atom{ca(10, 0, 0, 0), ca(11, 1, 0, 0)}
		if got := RMSD(a, b); !math.IsInf(got, 1) {
			t.Errorf("expected +Inf, got %f", got)
		}
	})
}
