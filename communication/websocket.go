// Package communication streams round progress to connected UI clients.
package communication

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// WSEvent is a typed event pushed to every connected client.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types emitted over the websocket during a consensus round.
const (
	EventRoundStarted      = "ROUND_STARTED"
	EventVoteReceived      = "VOTE_RECEIVED"
	EventConsensusReached  = "CONSENSUS_REACHED"
	EventByzantineDetected = "BYZANTINE_DETECTED"
	EventValidationDone    = "VALIDATION_DONE"
	EventAgentRegistered   = "AGENT_REGISTERED"
)

// WebSocketManager fans events out to connected clients.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan WSEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var (
	wsManager *WebSocketManager
	once      sync.Once
)

// GetWSManager returns the singleton manager, starting its loop on first
// use.
func GetWSManager() *WebSocketManager {
	once.Do(func() {
		wsManager = &WebSocketManager{
			clients:    make(map[*websocket.Conn]bool),
			broadcast:  make(chan WSEvent),
			register:   make(chan *websocket.Conn),
			unregister: make(chan *websocket.Conn),
		}
		go wsManager.run()
	})
	return wsManager
}

func (manager *WebSocketManager) run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client] = true
			manager.mu.Unlock()

		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				client.Close()
			}
			manager.mu.Unlock()

		case event := <-manager.broadcast:
			manager.mu.Lock()
			for client := range manager.clients {
				if err := client.WriteJSON(event); err != nil {
					log.Printf("WebSocket error: %v", err)
					client.Close()
					delete(manager.clients, client)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// BroadcastEvent pushes an event to all connected clients.
func BroadcastEvent(eventType string, payload interface{}) {
	GetWSManager().broadcast <- WSEvent{Type: eventType, Payload: payload}
}

// Register exposes the registration channel to the HTTP upgrade handler.
func (manager *WebSocketManager) Register() chan<- *websocket.Conn {
	return manager.register
}

// Unregister exposes the removal channel to the HTTP upgrade handler.
func (manager *WebSocketManager) Unregister() chan<- *websocket.Conn {
	return manager.unregister
}
