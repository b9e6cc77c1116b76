package agents

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	registered []Agent
	byID       = make(map[string]Agent)
	agentLock  sync.RWMutex
)

// Register adds an agent to the global registry. Slot order is registration
// order and stays fixed for the life of the process, so consensus rounds see
// a deterministic vote order.
func Register(a Agent) error {
	agentLock.Lock()
	defer agentLock.Unlock()
	if _, exists := byID[a.ID()]; exists {
		return fmt.Errorf("agent %s already registered", a.ID())
	}
	byID[a.ID()] = a
	registered = append(registered, a)
	return nil
}

// All returns the registered agents in slot order.
func All() []Agent {
	agentLock.RLock()
	defer agentLock.RUnlock()
	return append([]Agent(nil), registered...)
}

// Get returns an agent by ID, or nil.
func Get(id string) Agent {
	agentLock.RLock()
	defer agentLock.RUnlock()
	return byID[id]
}

// Count returns the number of registered agents.
func Count() int {
	agentLock.RLock()
	defer agentLock.RUnlock()
	return len(registered)
}

// Reset clears the registry. Used by tests and node restarts.
func Reset() {
	agentLock.Lock()
	defer agentLock.Unlock()
	registered = nil
	byID = make(map[string]Agent)
}

// NewAgentID returns a fresh unique agent identifier.
func NewAgentID() string {
	return uuid.New().String()
}
