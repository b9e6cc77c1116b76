package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BioMeshLabs/foldswarm/agents"
	"github.com/BioMeshLabs/foldswarm/api"
	"github.com/BioMeshLabs/foldswarm/api/handlers"
	"github.com/BioMeshLabs/foldswarm/config"
	consensuscfg "github.com/BioMeshLabs/foldswarm/consensus/config"
	"github.com/BioMeshLabs/foldswarm/core"
	"github.com/BioMeshLabs/foldswarm/storage"
)

// agentSpec is one entry of the -agents JSON file.
type agentSpec struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

func registerAgentsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read agents file: %w", err)
	}
	var specs []agentSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("invalid agents file: %w", err)
	}

	for _, spec := range specs {
		backend := agents.Backend(spec.Backend)
		if !agents.ValidBackend(backend) {
			return fmt.Errorf("unknown backend %q for agent %q", spec.Backend, spec.ID)
		}
		id := spec.ID
		if id == "" {
			id = agents.NewAgentID()
		}

		var agent agents.Agent
		if backend == agents.BackendCustom {
			agent = agents.NewLLMAgent(id, os.Getenv("OPENAI_API_KEY"), spec.Model)
		} else {
			agent = agents.NewRESTAgent(id, backend, spec.URL)
		}
		if err := agents.Register(agent); err != nil {
			return err
		}
		log.Printf("Registered agent %s (%s)", id, backend)
	}
	return nil
}

func main() {
	apiPort := flag.Int("api-port", 3000, "API server port")
	natsURL := flag.String("nats", "", "NATS URL (empty disables messaging)")
	dataDir := flag.String("data-dir", "./data", "Storage directory")
	agentsFile := flag.String("agents", "", "JSON file of prediction agents to register")
	faults := flag.Int("faults", 2, "Byzantine faults to tolerate (f)")
	rmsdThreshold := flag.Float64("rmsd-threshold", 2.0, "Clustering RMSD threshold in Å")
	timeout := flag.Duration("timeout", 30*time.Second, "Per-agent prediction timeout")
	flag.Parse()

	config.Load()

	if *natsURL == "" {
		*natsURL = config.Getenv("NATS_URL", "")
	}
	if *natsURL != "" {
		core.SetupNATS(*natsURL)
		defer core.CloseNATS()
	}

	store, err := storage.Open(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	if *agentsFile != "" {
		if err := registerAgentsFromFile(*agentsFile); err != nil {
			log.Fatalf("Failed to register agents: %v", err)
		}
	}

	cfg, err := consensuscfg.New(agents.Count(), *faults,
		consensuscfg.DefaultThreshold, *rmsdThreshold, *timeout)
	if err != nil {
		// Not fatal at startup: more agents can register over the API
		// before the first round runs.
		log.Printf("Warning: %v (rounds will fail until enough agents register)", err)
		cfg = consensuscfg.Default()
		cfg.FaultTolerance = *faults
		cfg.RMSDThreshold = *rmsdThreshold
		cfg.Timeout = *timeout
	}
	handlers.Init(store, cfg)

	log.Printf("foldswarm node started: %d agents registered, f=%d", agents.Count(), *faults)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	api.SetupRoutes(router)
	log.Fatal(router.Run(fmt.Sprintf(":%d", *apiPort)))
}
