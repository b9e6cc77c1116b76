package consensus

import (
	"math"

	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/geometry"
)

// DetectByzantine flags agents whose CA-trace RMSD against the consensus
// structure exceeds twice the clustering threshold. An unmatchable trace
// (different CA count) is infinite RMSD and is flagged as well.
func (e *Engine) DetectByzantine(votes []core.Vote, consensus core.Structure) []string {
	consensusCA := consensus.CAAtoms()

	var flagged []string
	for _, v := range votes {
		rmsd := geometry.RMSD(v.Structure.CAAtoms(), consensusCA)
		if rmsd > 2*e.rmsdThreshold {
			flagged = append(flagged, v.AgentID)
		}
	}
	return flagged
}

// Agreement returns the mean per-vote agreement score against the consensus
// structure. A vote at zero RMSD scores 1; a vote at or beyond twice the
// clustering threshold scores 0.
func (e *Engine) Agreement(votes []core.Vote, consensus core.Structure) float64 {
	if len(votes) == 0 {
		return 0
	}
	consensusCA := consensus.CAAtoms()

	var sum float64
	for _, v := range votes {
		rmsd := geometry.RMSD(v.Structure.CAAtoms(), consensusCA)
		score := 1 - rmsd/(2*e.rmsdThreshold)
		if math.IsInf(rmsd, 1) || score < 0 {
			score = 0
		}
		sum += score
	}
	return sum / float64(len(votes))
}
