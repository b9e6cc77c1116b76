package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BioMeshLabs/foldswarm/core"
)

// aminoAcidNames maps one-letter codes to the three-letter residue names
// used in atom records.
var aminoAcidNames = map[byte]string{
	'A': "ALA", 'R': "ARG", 'N': "ASN", 'D': "ASP", 'C': "CYS",
	'E': "GLU", 'Q': "GLN", 'G': "GLY", 'H': "HIS", 'I': "ILE",
	'L': "LEU", 'K': "LYS", 'M': "MET", 'F': "PHE", 'P': "PRO",
	'S': "SER", 'T': "THR", 'W': "TRP", 'Y': "TYR", 'V': "VAL",
}

// ResidueName returns the three-letter name for a one-letter code, or UNK.
func ResidueName(code byte) string {
	if name, ok := aminoAcidNames[code]; ok {
		return name
	}
	return "UNK"
}

// LLMAgent is the custom backend: it asks a chat model for a CA trace and
// parses the JSON reply. Useful as a cheap heterogeneous voter alongside
// the dedicated folding services.
type LLMAgent struct {
	id     string
	model  string
	client *openai.Client
}

// NewLLMAgent creates a custom agent backed by the given chat model.
func NewLLMAgent(id, apiKey, model string) *LLMAgent {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &LLMAgent{
		id:     id,
		model:  model,
		client: openai.NewClient(apiKey),
	}
}

func (a *LLMAgent) ID() string       { return a.id }
func (a *LLMAgent) Backend() Backend { return BackendCustom }

type llmTracePoint struct {
	Residue int     `json:"residue"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Predict prompts the model for alpha-carbon coordinates and converts the
// reply into a structure. Unparseable output fails the prediction.
func (a *LLMAgent) Predict(ctx context.Context, seq core.Sequence) (core.Structure, error) {
	prompt := fmt.Sprintf(
		"You are a protein structure prediction model.\n"+
			"Predict plausible alpha-carbon (CA) coordinates in Ångströms for the sequence:\n%s\n"+
			"Respond with a JSON array only, one object per residue:\n"+
			`[{"residue": 1, "x": 0.0, "y": 0.0, "z": 0.0}, ...]`,
		seq.Residues,
	)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return core.Structure{}, fmt.Errorf("agent %s: %w", a.id, err)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var trace []llmTracePoint
	if err := json.Unmarshal([]byte(content), &trace); err != nil {
		return core.Structure{}, fmt.Errorf("agent %s: invalid trace JSON: %w", a.id, err)
	}

	atoms := make([]core.Atom, 0, len(trace))
	for i, p := range trace {
		name := "UNK"
		if p.Residue >= 1 && p.Residue <= seq.Length() {
			name = ResidueName(seq.Residues[p.Residue-1])
		}
		atoms = append(atoms, core.Atom{
			AtomID:        i + 1,
			AtomName:      "CA",
			ResidueNumber: p.Residue,
			ResidueName:   name,
			ChainID:       "A",
			Coordinate:    core.Coordinate{X: p.X, Y: p.Y, Z: p.Z},
		})
	}

	return core.Structure{
		SequenceID:  seq.ID,
		Atoms:       atoms,
		Confidence:  0.5, // the model gives no calibrated confidence
		PredictedBy: a.id,
		Timestamp:   time.Now().UnixMilli(),
	}, nil
}
