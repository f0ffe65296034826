package queue

import (
	"context"
)

// Publisher announces completed forecast runs to a message broker
type Publisher interface {
	// Publish sends a message to a subject
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch sends several messages and returns how many were accepted
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	// Close releases broker connections
	Close() error
}

// BatchMessage represents a message in a batch publish operation
type BatchMessage struct {
	Subject string
	Data    []byte
}
