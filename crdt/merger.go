// Package crdt merges whole structures with a last-writer-wins register per
// atom key, ordered by Lamport timestamp. Merging is a pure function: every
// call owns fresh local state, so the merge is commutative over its input
// list and depends only on each structure's own timestamp and producer.
package crdt

import (
	"errors"
	"sort"
	"time"

	"github.com/BioMeshLabs/foldswarm/core"
)

// OpKind tags a merge operation.
type OpKind int

const (
	OpAdd OpKind = iota
	OpRemove
)

// Op is an ephemeral merge operation. Ops are created and consumed within a
// single Merge call and never persisted.
type Op struct {
	Kind      OpKind
	Timestamp int64
	AgentID   string
	Atoms     []core.Atom
}

// ErrNoStructures is returned when Merge is called with an empty input.
var ErrNoStructures = errors.New("no structures to merge")

// MergedBy is the producer name stamped on merge output.
const MergedBy = "crdt-merged"

// Merge folds the input structures into one. Every atom becomes an Add op
// keyed by (chainId, residueNumber, atomName); ops apply in ascending
// timestamp order with last-writer-wins per key. On an exact timestamp tie
// the op with the lexicographically greater agent ID wins, which makes the
// result a deterministic function of the inputs regardless of list order.
func Merge(structures []core.Structure) (core.Structure, error) {
	if len(structures) == 0 {
		return core.Structure{}, ErrNoStructures
	}

	var ops []Op
	for _, s := range structures {
		for _, a := range s.Atoms {
			ops = append(ops, Op{
				Kind:      OpAdd,
				Timestamp: s.Timestamp,
				AgentID:   s.PredictedBy,
				Atoms:     []core.Atom{a},
			})
		}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Timestamp < ops[j].Timestamp
	})

	type register struct {
		atom      core.Atom
		timestamp int64
		agentID   string
	}
	states := make(map[string]register)
	for _, op := range ops {
		atom := op.Atoms[0]
		key := atom.Key()
		current, exists := states[key]
		if exists {
			if op.Timestamp < current.timestamp {
				continue
			}
			if op.Timestamp == current.timestamp && op.AgentID <= current.agentID {
				continue
			}
		}
		states[key] = register{atom: atom, timestamp: op.Timestamp, agentID: op.AgentID}
	}

	atoms := make([]core.Atom, 0, len(states))
	for _, st := range states {
		atoms = append(atoms, st.atom)
	}
	sort.Slice(atoms, func(i, j int) bool {
		if atoms[i].ResidueNumber != atoms[j].ResidueNumber {
			return atoms[i].ResidueNumber < atoms[j].ResidueNumber
		}
		return atoms[i].AtomName < atoms[j].AtomName
	})

	return core.Structure{
		SequenceID:           structures[0].SequenceID,
		Atoms:                atoms,
		Confidence:           meanConfidence(structures),
		PerResidueConfidence: mergePerResidue(structures),
		PredictedBy:          MergedBy,
		Timestamp:            time.Now().UnixMilli(),
	}, nil
}

func meanConfidence(structures []core.Structure) float64 {
	var sum float64
	for _, s := range structures {
		sum += s.Confidence
	}
	return sum / float64(len(structures))
}

// mergePerResidue averages per-residue confidences index-wise across the
// inputs that define each index; indices no input defines default to 0.5.
func mergePerResidue(structures []core.Structure) []float64 {
	maxLen := 0
	for _, s := range structures {
		if len(s.PerResidueConfidence) > maxLen {
			maxLen = len(s.PerResidueConfidence)
		}
	}
	if maxLen == 0 {
		return nil
	}

	merged := make([]float64, maxLen)
	for i := 0; i < maxLen; i++ {
		var sum float64
		count := 0
		for _, s := range structures {
			if i < len(s.PerResidueConfidence) {
				sum += s.PerResidueConfidence[i]
				count++
			}
		}
		if count == 0 {
			merged[i] = 0.5
			continue
		}
		merged[i] = sum / float64(count)
	}
	return merged
}
