package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPublisher keeps published messages in process, grouped by subject
type MemoryPublisher struct {
	messages map[string][][]byte
	closed   bool
	mu       sync.RWMutex
}

// NewMemoryPublisher creates an in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		messages: make(map[string][][]byte),
	}
}

// Publish stores a copy of data under subject
func (q *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("publisher is closed")
	}

	msg := make([]byte, len(data))
	copy(msg, data)
	q.messages[subject] = append(q.messages[subject], msg)
	return nil
}

// PublishBatch stores every message, stopping at the first failure
func (q *MemoryPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	for i, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			return i, err
		}
	}
	return len(messages), nil
}

// Messages returns the messages published to subject in order
func (q *MemoryPublisher) Messages(subject string) [][]byte {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([][]byte, len(q.messages[subject]))
	copy(out, q.messages[subject])
	return out
}

// GetPendingCount returns the number of messages held for subject
func (q *MemoryPublisher) GetPendingCount(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.messages[subject])
}

// Close marks the publisher closed
func (q *MemoryPublisher) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
