package core

import (
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects published by the consensus round orchestrator.
const (
	SubjectRoundStarted      = "ROUND_STARTED"
	SubjectConsensusReached  = "CONSENSUS_REACHED"
	SubjectByzantineDetected = "BYZANTINE_DETECTED"
)

// NATSBroker encapsulates a NATS connection.
type NATSBroker struct {
	Conn *nats.Conn
}

// NewNATSBroker creates a new NATSBroker connected to the provided URL.
func NewNATSBroker(url string) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBroker{Conn: nc}, nil
}

// Publish sends data on the provided subject.
func (b *NATSBroker) Publish(subject string, data []byte) error {
	return b.Conn.Publish(subject, data)
}

// Subscribe registers a callback for a specific subject.
func (b *NATSBroker) Subscribe(subject string, cb nats.MsgHandler) error {
	_, err := b.Conn.Subscribe(subject, cb)
	return err
}

// Close gracefully closes the connection.
func (b *NATSBroker) Close() {
	b.Conn.Close()
}

// Global instance of the NATS broker. Nil when messaging is disabled
// (library use, tests).
var NatsBrokerInstance *NATSBroker

// SetupNATS initializes the global NATS broker. Call this at startup.
func SetupNATS(url string) {
	broker, err := NewNATSBroker(url)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	NatsBrokerInstance = broker
	log.Printf("Connected to NATS at %s", url)
}

// CloseNATS closes the global broker if one was set up.
func CloseNATS() {
	if NatsBrokerInstance != nil {
		NatsBrokerInstance.Close()
		NatsBrokerInstance = nil
	}
}

// PublishEvent JSON-encodes v and publishes it on subject through the global
// broker. Publishing is best effort: a nil broker or encode failure only
// logs.
func PublishEvent(subject string, v interface{}) {
	if NatsBrokerInstance == nil {
		return
	}
	data := EncodeJSON(v)
	if data == nil {
		log.Printf("Failed to encode event for %s", subject)
		return
	}
	if err := NatsBrokerInstance.Publish(subject, data); err != nil {
		log.Printf("Failed to publish %s: %v", subject, err)
	}
}
