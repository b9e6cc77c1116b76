package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BioMeshLabs/foldswarm/agents"
	"github.com/BioMeshLabs/foldswarm/communication"
	"github.com/BioMeshLabs/foldswarm/consensus"
	"github.com/BioMeshLabs/foldswarm/consensus/config"
	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/crdt"
	"github.com/BioMeshLabs/foldswarm/storage"
	"github.com/BioMeshLabs/foldswarm/validation"
)

var (
	store    storage.Storage
	roundCfg config.Config
)

// Init wires the handler package to its collaborators. Call once at
// startup before serving.
func Init(s storage.Storage, cfg config.Config) {
	store = s
	roundCfg = cfg
}

type foldRequest struct {
	SequenceID string `json:"sequenceId" binding:"required"`
	Sequence   string `json:"sequence" binding:"required"`
}

// FoldSequence runs one full consensus round over the registered agents,
// validates the consensus structure and persists both.
func FoldSequence(c *gin.Context) {
	var req foldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fold request"})
		return
	}

	registered := agents.All()
	roundAgents := make([]consensus.Agent, len(registered))
	for i, a := range registered {
		roundAgents[i] = a
	}

	cfg, err := config.New(len(roundAgents), roundCfg.FaultTolerance,
		roundCfg.ConsensusThreshold, roundCfg.RMSDThreshold, roundCfg.Timeout)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	manager, err := consensus.NewRoundManager(cfg, roundAgents)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seq := core.Sequence{ID: req.SequenceID, Residues: req.Sequence}
	communication.BroadcastEvent(communication.EventRoundStarted, gin.H{
		"sequenceId": seq.ID,
		"numAgents":  len(roundAgents),
	})

	result, err := manager.Run(c.Request.Context(), seq)
	if err != nil {
		if errors.Is(err, consensus.ErrInsufficientVotes) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	report := validation.Validate(result.ConsensusStructure)

	roundID := uuid.New().String()
	if store != nil {
		if err := store.SaveConsensusResult(roundID, result); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist result"})
			return
		}
		if err := store.SaveValidation(seq.ID, roundID, report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist validation"})
			return
		}
	}

	if len(result.ByzantineDetected) > 0 {
		communication.BroadcastEvent(communication.EventByzantineDetected, gin.H{
			"sequenceId": seq.ID,
			"agentIds":   result.ByzantineDetected,
		})
	}
	communication.BroadcastEvent(communication.EventConsensusReached, result)
	communication.BroadcastEvent(communication.EventValidationDone, report)

	c.JSON(http.StatusOK, gin.H{
		"roundId":    roundID,
		"result":     result,
		"validation": report,
	})
}

type mergeRequest struct {
	Structures []core.Structure `json:"structures" binding:"required"`
}

// MergeStructures merges the posted structures with the CRDT merger.
func MergeStructures(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid merge request"})
		return
	}

	merged, err := crdt.Merge(req.Structures)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": merged})
}

type alignRequest struct {
	Reference core.Structure `json:"reference" binding:"required"`
	Target    core.Structure `json:"target" binding:"required"`
}

// AlignStructures translates the target onto the reference's CA centroid.
func AlignStructures(c *gin.Context) {
	var req alignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid align request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"aligned": crdt.AlignTranslationOnly(req.Reference, req.Target)})
}

// ValidateStructure runs geometric validation over the posted structure.
func ValidateStructure(c *gin.Context) {
	var structure core.Structure
	if err := c.ShouldBindJSON(&structure); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid structure"})
		return
	}
	c.JSON(http.StatusOK, validation.Validate(structure))
}

// GetResults returns all stored consensus results for a sequence.
func GetResults(c *gin.Context) {
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage not configured"})
		return
	}
	results, err := store.ListConsensusResults(c.Param("sequenceId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

type agentInfo struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
}

// GetAgents lists the registered prediction agents in slot order.
func GetAgents(c *gin.Context) {
	registered := agents.All()
	infos := make([]agentInfo, len(registered))
	for i, a := range registered {
		infos[i] = agentInfo{ID: a.ID(), Backend: string(a.Backend())}
	}
	c.JSON(http.StatusOK, gin.H{"agents": infos})
}

type registerAgentRequest struct {
	ID      string `json:"id"`
	Backend string `json:"backend" binding:"required"`
	URL     string `json:"url"`
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
}

// RegisterAgent adds a prediction agent to the registry.
func RegisterAgent(c *gin.Context) {
	var req registerAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent data"})
		return
	}

	backend := agents.Backend(req.Backend)
	if !agents.ValidBackend(backend) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown backend: " + req.Backend})
		return
	}
	if req.ID == "" {
		req.ID = agents.NewAgentID()
	}

	var agent agents.Agent
	if backend == agents.BackendCustom {
		agent = agents.NewLLMAgent(req.ID, req.APIKey, req.Model)
	} else {
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "REST backends require a url"})
			return
		}
		agent = agents.NewRESTAgent(req.ID, backend, req.URL)
	}

	if err := agents.Register(agent); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	communication.BroadcastEvent(communication.EventAgentRegistered, agentInfo{
		ID: agent.ID(), Backend: string(agent.Backend()),
	})
	c.JSON(http.StatusOK, gin.H{"id": agent.ID(), "backend": agent.Backend()})
}
