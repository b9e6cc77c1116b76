package config

import (
	"errors"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cases := []struct {
		name   string
		agents int
		faults int
		ok     bool
	}{
		{"4 agents tolerate 1 fault", 4, 1, true},
		{"7 agents tolerate 2 faults", 7, 2, true},
		{"10 agents tolerate 3 faults", 10, 3, true},
		{"3 agents cannot tolerate 1 fault", 3, 1, false},
		{"6 agents cannot tolerate 2 faults", 6, 2, false},
		{"9 agents cannot tolerate 3 faults", 9, 3, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.agents, tc.faults, DefaultThreshold, 2.0, time.Second)
			if tc.ok && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected configuration error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestDefaultThresholdApplied(t *testing.T) {
	cfg, err := New(7, 2, 0, 2.0, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConsensusThreshold != DefaultThreshold {
		t.Errorf("expected default threshold, got %f", cfg.ConsensusThreshold)
	}
}

func TestMinVotes(t *testing.T) {
	cfg := Default()
	if got := cfg.MinVotes(); got != 5 {
		t.Errorf("2f+1 with f=2 should be 5, got %d", got)
	}
}
