package consensus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/BioMeshLabs/foldswarm/consensus/config"
	"github.com/BioMeshLabs/foldswarm/core"
)

// Agent is the prediction capability consumed by a consensus round. A
// failing agent simply contributes no vote; the round never retries.
type Agent interface {
	ID() string
	Predict(ctx context.Context, seq core.Sequence) (core.Structure, error)
}

// RoundManager drives consensus rounds over a fixed set of prediction
// agents. The slot index of each agent is fixed at construction, so the
// downstream clustering order is deterministic across runs regardless of
// which agent answers first.
type RoundManager struct {
	cfg    config.Config
	agents []Agent
	engine *Engine
}

// NewRoundManager validates the agent set against the configuration and
// returns a manager.
func NewRoundManager(cfg config.Config, agents []Agent) (*RoundManager, error) {
	if len(agents) != cfg.NumAgents {
		return nil, fmt.Errorf("%w: configured for %d agents, got %d",
			config.ErrInvalidConfig, cfg.NumAgents, len(agents))
	}
	return &RoundManager{
		cfg:    cfg,
		agents: agents,
		engine: NewEngine(cfg),
	}, nil
}

// Config returns the round configuration.
func (rm *RoundManager) Config() config.Config { return rm.cfg }

// Run executes one consensus round: fan out N predictions concurrently,
// wait for all of them to settle, then cluster, reconstruct and score.
// Fewer than 2f+1 successful votes fails the round with
// ErrInsufficientVotes.
func (rm *RoundManager) Run(ctx context.Context, seq core.Sequence) (core.ConsensusResult, error) {
	start := time.Now()
	log.Printf("Starting consensus round for %s with %d agents", seq.ID, len(rm.agents))
	core.PublishEvent(core.SubjectRoundStarted, map[string]interface{}{
		"sequenceId": seq.ID,
		"numAgents":  len(rm.agents),
	})

	// One slot per agent; a failed call leaves its slot nil so surviving
	// votes keep their configured order.
	slots := make([]*core.Vote, len(rm.agents))
	var wg sync.WaitGroup
	for i, agent := range rm.agents {
		wg.Add(1)
		go func(i int, agent Agent) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, rm.cfg.Timeout)
			defer cancel()

			structure, err := agent.Predict(callCtx, seq)
			if err != nil {
				log.Printf("Agent %s failed to predict %s: %v", agent.ID(), seq.ID, err)
				return
			}
			slots[i] = &core.Vote{
				AgentID:   agent.ID(),
				Structure: structure,
				Timestamp: time.Now().UnixMilli(),
			}
		}(i, agent)
	}
	wg.Wait()

	var votes []core.Vote
	for _, v := range slots {
		if v != nil {
			votes = append(votes, *v)
		}
	}
	if len(votes) < rm.cfg.MinVotes() {
		return core.ConsensusResult{}, fmt.Errorf("%w: got %d, need %d",
			ErrInsufficientVotes, len(votes), rm.cfg.MinVotes())
	}

	structure, warnings := rm.engine.BuildConsensus(votes, seq.ID)
	byzantine := rm.engine.DetectByzantine(votes, structure)
	agreement := rm.engine.Agreement(votes, structure)

	elapsed := time.Since(start).Milliseconds()
	if elapsed == 0 {
		elapsed = 1
	}
	result := core.ConsensusResult{
		ConsensusStructure: structure,
		Votes:              votes,
		Agreement:          agreement,
		ByzantineDetected:  byzantine,
		ConvergenceTimeMs:  elapsed,
		Warnings:           warnings,
	}

	if len(byzantine) > 0 {
		log.Printf("Byzantine agents detected for %s: %v", seq.ID, byzantine)
		core.PublishEvent(core.SubjectByzantineDetected, map[string]interface{}{
			"sequenceId": seq.ID,
			"agentIds":   byzantine,
		})
	}
	core.PublishEvent(core.SubjectConsensusReached, result)
	log.Printf("Consensus reached for %s: agreement=%.3f, %d/%d votes, %dms",
		seq.ID, agreement, len(votes), len(rm.agents), elapsed)

	return result, nil
}
