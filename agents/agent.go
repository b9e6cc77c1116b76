// Package agents provides the prediction-agent clients a consensus round
// fans out to. Backends are a tagged union: the consensus core never needs
// to know which model produced a structure.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BioMeshLabs/foldswarm/core"
)

// Backend identifies the model family behind an agent.
type Backend string

const (
	BackendESMFold     Backend = "esmfold"
	BackendOmegaFold   Backend = "omegafold"
	BackendOpenFold    Backend = "openfold"
	BackendRosettaFold Backend = "rosettafold"
	BackendCustom      Backend = "custom"
)

// ValidBackend reports whether b names a known backend.
func ValidBackend(b Backend) bool {
	switch b {
	case BackendESMFold, BackendOmegaFold, BackendOpenFold, BackendRosettaFold, BackendCustom:
		return true
	}
	return false
}

// Agent predicts a structure from a sequence. Any failure means "no vote
// from this agent"; callers do not retry.
type Agent interface {
	ID() string
	Backend() Backend
	Predict(ctx context.Context, seq core.Sequence) (core.Structure, error)
}

// RESTAgent calls a folding service over HTTP. All four model backends are
// deployed as REST services; only the URL and backend tag differ.
type RESTAgent struct {
	id      string
	backend Backend
	baseURL string
	client  *http.Client
}

// NewRESTAgent creates an agent for a folding service endpoint.
func NewRESTAgent(id string, backend Backend, baseURL string) *RESTAgent {
	return &RESTAgent{
		id:      id,
		backend: backend,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (a *RESTAgent) ID() string       { return a.id }
func (a *RESTAgent) Backend() Backend { return a.backend }

type foldRequest struct {
	SequenceID string `json:"sequenceId"`
	Sequence   string `json:"sequence"`
}

// Predict POSTs the sequence to the folding service and decodes the
// returned structure. The context carries the per-call timeout set by the
// round orchestrator.
func (a *RESTAgent) Predict(ctx context.Context, seq core.Sequence) (core.Structure, error) {
	body, err := json.Marshal(foldRequest{SequenceID: seq.ID, Sequence: seq.Residues})
	if err != nil {
		return core.Structure{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/fold", bytes.NewReader(body))
	if err != nil {
		return core.Structure{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return core.Structure{}, fmt.Errorf("agent %s: %w", a.id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.Structure{}, fmt.Errorf("agent %s: folding service returned %d", a.id, resp.StatusCode)
	}

	var structure core.Structure
	if err := json.NewDecoder(resp.Body).Decode(&structure); err != nil {
		return core.Structure{}, fmt.Errorf("agent %s: decoding structure: %w", a.id, err)
	}

	structure.SequenceID = seq.ID
	structure.PredictedBy = a.id
	if structure.Timestamp == 0 {
		structure.Timestamp = time.Now().UnixMilli()
	}
	return structure, nil
}
