package consensus

import (
	"math"
	"testing"

	"github.com/BioMeshLabs/foldswarm/core"
)

func TestDetectByzantine(t *testing.T) {
	engine := NewEngine(testConfig(t))
	votes := sevenVotes(5)
	consensus, _ := engine.BuildConsensus(votes, "seq-1")

	flagged := engine.DetectByzantine(votes, consensus)
	if len(flagged) != 2 {
		t.Fatalf("expected 2 Byzantine agents, got %v", flagged)
	}
	want := map[string]bool{"byz-5": true, "byz-6": true}
	for _, id := range flagged {
		if !want[id] {
			t.Errorf("unexpected agent flagged: %s", id)
		}
	}
}

func TestDetectByzantineMismatchedTrace(t *testing.T) {
	engine := NewEngine(testConfig(t))
	votes := sevenVotes(5)
	consensus, _ := engine.BuildConsensus(votes, "seq-1")

	// A truncated trace cannot be matched (infinite RMSD) and is flagged.
	withShort := append(append([]core.Vote(nil), votes...), caVote("short", 3, 0))
	flagged := engine.DetectByzantine(withShort, consensus)
	found := false
	for _, id := range flagged {
		if id == "short" {
			found = true
		}
	}
	if !found {
		t.Error("agent with truncated trace should be flagged")
	}
}

func TestAgreement(t *testing.T) {
	engine := NewEngine(testConfig(t))
	votes := sevenVotes(5)
	consensus, _ := engine.BuildConsensus(votes, "seq-1")

	agreement := engine.Agreement(votes, consensus)
	// Five near-perfect votes and two at score 0.
	if agreement < 0.6 || agreement > 5.0/7.0+1e-9 {
		t.Errorf("expected agreement near 5/7, got %f", agreement)
	}

	t.Run("perfect votes", func(t *testing.T) {
		identical := []core.Vote{caVote("a", 5, 0), caVote("b", 5, 0), caVote("c", 5, 0)}
		structure, _ := engine.BuildConsensus(identical, "seq-1")
		if got := engine.Agreement(identical, structure); math.Abs(got-1) > 1e-9 {
			t.Errorf("identical votes should agree fully, got %f", got)
		}
	})

	t.Run("no votes", func(t *testing.T) {
		if got := engine.Agreement(nil, core.Structure{}); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})
}
