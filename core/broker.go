package core

import (
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects published by the core.
const (
	SubjectInsightShared     = "insight.shared"
	SubjectDialogueCompleted = "dialogue.completed"
)

// NATSBroker encapsulates a NATS connection. A nil *NATSBroker is valid
// and drops all publishes, so components can run without a broker.
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
	if b == nil || b.Conn == nil {
		return nil
	}
	if err := b.Conn.Publish(subject, data); err != nil {
		log.Printf("NATS publish to %s failed: %v", subject, err)
		return err
	}
	return nil
}

// Subscribe registers a callback for a specific subject.
func (b *NATSBroker) Subscribe(subject string, cb nats.MsgHandler) error {
	if b == nil || b.Conn == nil {
		return nil
	}
	_, err := b.Conn.Subscribe(subject, cb)
	return err
}

// Close gracefully closes the connection.
func (b *NATSBroker) Close() {
	if b != nil && b.Conn != nil {
		b.Conn.Close()
	}
}
