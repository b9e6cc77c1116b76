// Package config holds the knobs for a Byzantine consensus round.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig marks a violation of the N >= 3f+1 invariant. It is
// fatal: a consensus engine is never constructed from a bad config.
var ErrInvalidConfig = errors.New("invalid consensus configuration")

// Config controls a consensus round. All knobs are pass-through values with
// a single hard invariant: NumAgents >= 3*FaultTolerance+1.
type Config struct {
	NumAgents          int           `json:"numAgents"`
	FaultTolerance     int           `json:"faultTolerance"` // max Byzantine agents tolerated
	ConsensusThreshold float64       `json:"consensusThreshold"`
	RMSDThreshold      float64       `json:"rmsdThreshold"` // Å
	Timeout            time.Duration `json:"timeout"`       // per agent call
}

// New validates and returns a Config. Violating N >= 3f+1 is a fatal
// configuration error, not a recoverable one.
func New(numAgents, faultTolerance int, threshold, rmsdThreshold float64, timeout time.Duration) (Config, error) {
	if numAgents < 3*faultTolerance+1 {
		return Config{}, fmt.Errorf("%w: need at least %d agents to tolerate %d faults, got %d",
			ErrInvalidConfig, 3*faultTolerance+1, faultTolerance, numAgents)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Config{
		NumAgents:          numAgents,
		FaultTolerance:     faultTolerance,
		ConsensusThreshold: threshold,
		RMSDThreshold:      rmsdThreshold,
		Timeout:            timeout,
	}, nil
}

// DefaultThreshold is the quorum fraction used when none is supplied.
const DefaultThreshold = 2.0 / 3.0

// Default returns the stock 7-agent, 2-fault configuration.
func Default() Config {
	return Config{
		NumAgents:          7,
		FaultTolerance:     2,
		ConsensusThreshold: DefaultThreshold,
		RMSDThreshold:      2.0,
		Timeout:            30 * time.Second,
	}
}

// MinVotes returns the quorum floor 2f+1: the smallest number of successful
// votes from which a Byzantine-safe decision can be made.
func (c Config) MinVotes() int {
	return 2*c.FaultTolerance + 1
}
