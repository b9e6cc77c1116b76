package core

import "fmt"

// Coordinate is a position in 3D space, in Ångströms.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Atom represents a single atom of a predicted structure.
type Atom struct {
	AtomID        int        `json:"atomId"`
	AtomName      string     `json:"atomName"`
	ResidueNumber int        `json:"residueNumber"` // 1-based
	ResidueName   string     `json:"residueName"`
	ChainID       string     `json:"chainId"`
	Coordinate    Coordinate `json:"coordinate"`
	BFactor       float64    `json:"bFactor,omitempty"` // carries per-atom model confidence
	Occupancy     float64    `json:"occupancy,omitempty"`
}

// Key returns the identity key used for merging and matching.
// It must be unique within a single structure.
func (a Atom) Key() string {
	return fmt.Sprintf("%s:%d:%s", a.ChainID, a.ResidueNumber, a.AtomName)
}

// Structure is a full 3D structure prediction. Structures are immutable
// once produced; every component exchanges them by value.
type Structure struct {
	SequenceID           string    `json:"sequenceId"`
	Atoms                []Atom    `json:"atoms"`
	Confidence           float64   `json:"confidence"` // 0..1
	PerResidueConfidence []float64 `json:"perResidueConfidence,omitempty"`
	PredictedBy          string    `json:"predictedBy"`
	Timestamp            int64     `json:"timestamp"`
	Energy               float64   `json:"energy,omitempty"`
}

// CAAtoms returns the alpha-carbon trace of the structure.
func (s Structure) CAAtoms() []Atom {
	var cas []Atom
	for _, a := range s.Atoms {
		if a.AtomName == "CA" {
			cas = append(cas, a)
		}
	}
	return cas
}

// AtomsByResidue groups the structure's atoms by residue number.
func (s Structure) AtomsByResidue() map[int][]Atom {
	grouped := make(map[int][]Atom)
	for _, a := range s.Atoms {
		grouped[a.ResidueNumber] = append(grouped[a.ResidueNumber], a)
	}
	return grouped
}

// MaxResidueNumber returns the highest residue number present, or 0 for an
// empty structure.
func (s Structure) MaxResidueNumber() int {
	max := 0
	for _, a := range s.Atoms {
		if a.ResidueNumber > max {
			max = a.ResidueNumber
		}
	}
	return max
}

// Vote is one agent's structure prediction for a consensus round.
// Votes are created once per agent per round and never mutated.
type Vote struct {
	AgentID   string    `json:"agentId"`
	Structure Structure `json:"structure"`
	Timestamp int64     `json:"timestamp"`
}

// Sequence is an amino-acid sequence to be folded.
type Sequence struct {
	ID       string `json:"id"`
	Residues string `json:"residues"`
}

// Length returns the number of residues in the sequence.
func (s Sequence) Length() int { return len(s.Residues) }

// ConsensusResult is the durable output of a consensus round.
type ConsensusResult struct {
	ConsensusStructure Structure `json:"consensusStructure"`
	Votes              []Vote    `json:"votes"`
	Agreement          float64   `json:"agreement"`
	ByzantineDetected  []string  `json:"byzantineDetected"`
	ConvergenceTimeMs  int64     `json:"convergenceTimeMs"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// ValidationResult is the outcome of geometric validation of a structure.
// Findings are always data, never errors raised to the caller.
type ValidationResult struct {
	IsValid         bool     `json:"isValid"`
	Energy          float64  `json:"energy"`
	Clashes         int      `json:"clashes"`
	BondViolations  int      `json:"bondViolations"`
	AngleViolations int      `json:"angleViolations"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
}
