// Package consensus implements Byzantine fault-tolerant structure consensus:
// per-residue quorum voting with median reconstruction, Byzantine agent
// detection, and the round orchestrator that drives the prediction agents.
package consensus

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BioMeshLabs/foldswarm/consensus/config"
	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/geometry"
)

// FallbackConfidence is assigned to a residue when no seed reaches quorum
// and all votes are used instead.
const FallbackConfidence = 0.3

// ResidueGroup is one agent's atoms for a single residue.
type ResidueGroup struct {
	AgentID string
	Atoms   []core.Atom
}

// Engine performs per-residue quorum voting over a fixed-order vote set.
type Engine struct {
	threshold     float64
	rmsdThreshold float64
}

// NewEngine creates a voting engine from the round configuration.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		threshold:     cfg.ConsensusThreshold,
		rmsdThreshold: cfg.RMSDThreshold,
	}
}

// ClusterResidue runs greedy first-fit clustering over the groups of one
// residue, in input order. It returns the first cluster that reaches
// ceil(len(groups)*threshold) members and true, or nil and false when no
// seed reaches quorum.
//
// This is intentionally not a maximum-clique search: the first quorum-
// eligible seed wins, which keeps cluster choice deterministic given the
// fixed vote order.
func (e *Engine) ClusterResidue(groups []ResidueGroup) ([]ResidueGroup, bool) {
	if len(groups) == 0 {
		return nil, false
	}
	requiredSize := int(math.Ceil(float64(len(groups)) * e.threshold))

	for _, seed := range groups {
		var cluster []ResidueGroup
		for _, g := range groups {
			if geometry.RMSD(seed.Atoms, g.Atoms) <= e.rmsdThreshold {
				cluster = append(cluster, g)
			}
		}
		if len(cluster) >= requiredSize {
			return cluster, true
		}
	}
	return nil, false
}

// ReconstructResidue builds the consensus atoms for one residue from the
// winning cluster. Each atom present in the cluster's first member is
// rebuilt from the per-axis independent median of the same-named atom across
// all members that have it; bFactor is the arithmetic mean of the
// contributors.
func (e *Engine) ReconstructResidue(cluster []ResidueGroup) []core.Atom {
	if len(cluster) == 0 {
		return nil
	}
	reference := cluster[0]

	var atoms []core.Atom
	for _, ref := range reference.Atoms {
		var xs, ys, zs []float64
		var bSum float64
		for _, g := range cluster {
			for _, a := range g.Atoms {
				if a.AtomName == ref.AtomName {
					xs = append(xs, a.Coordinate.X)
					ys = append(ys, a.Coordinate.Y)
					zs = append(zs, a.Coordinate.Z)
					bSum += a.BFactor
					break
				}
			}
		}
		consensus := ref
		consensus.Coordinate = core.Coordinate{
			X: median(xs),
			Y: median(ys),
			Z: median(zs),
		}
		consensus.BFactor = bSum / float64(len(xs))
		atoms = append(atoms, consensus)
	}
	return atoms
}

// BuildConsensus assembles the whole consensus structure from the round's
// votes. Votes must already be in their fixed slot order; the clustering
// seed order follows it. Residues with no atoms in any vote are skipped
// with a warning, and residues without quorum fall back to an all-votes
// median at FallbackConfidence.
func (e *Engine) BuildConsensus(votes []core.Vote, sequenceID string) (core.Structure, []string) {
	var warnings []string

	maxResidue := 0
	for _, v := range votes {
		if n := v.Structure.MaxResidueNumber(); n > maxResidue {
			maxResidue = n
		}
	}

	byResidue := make([]map[int][]core.Atom, len(votes))
	for i, v := range votes {
		byResidue[i] = v.Structure.AtomsByResidue()
	}

	var atoms []core.Atom
	var perResidue []float64
	for residue := 1; residue <= maxResidue; residue++ {
		var groups []ResidueGroup
		for i, v := range votes {
			if ra := byResidue[i][residue]; len(ra) > 0 {
				groups = append(groups, ResidueGroup{AgentID: v.AgentID, Atoms: ra})
			}
		}
		if len(groups) == 0 {
			warnings = append(warnings, fmt.Sprintf("residue %d: no votes, skipped", residue))
			continue
		}

		cluster, quorum := e.ClusterResidue(groups)
		var confidence float64
		if quorum {
			confidence = float64(len(cluster)) / float64(len(groups))
		} else {
			cluster = groups
			confidence = FallbackConfidence
			warnings = append(warnings, fmt.Sprintf("residue %d: no quorum, using all %d votes", residue, len(groups)))
		}

		atoms = append(atoms, e.ReconstructResidue(cluster)...)
		perResidue = append(perResidue, confidence)
	}

	return core.Structure{
		SequenceID:           sequenceID,
		Atoms:                atoms,
		Confidence:           mean(perResidue),
		PerResidueConfidence: perResidue,
		PredictedBy:          "quorum-consensus",
		Timestamp:            time.Now().UnixMilli(),
	}, warnings
}

// median returns the per-axis independent median; even-sized inputs average
// the two middle values.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
