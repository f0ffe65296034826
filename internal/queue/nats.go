package queue

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes run summaries on core NATS subjects
type NATSPublisher struct {
	conn *nats.Conn
}

func newNATSPublisher(url, username, password string) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("gridcast")}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// newNATSPublisherWithConn wraps an existing connection (used in tests)
func newNATSPublisherWithConn(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish publishes a message and flushes it to the server
func (q *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	if err := q.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues all messages and flushes once
func (q *NATSPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	queued := 0
	for _, msg := range messages {
		if err := q.conn.Publish(msg.Subject, msg.Data); err != nil {
			continue
		}
		queued++
	}

	if err := q.conn.FlushWithContext(ctx); err != nil {
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", err)
	}
	return queued, nil
}

// Close drains and closes the connection
func (q *NATSPublisher) Close() error {
	if q.conn == nil || q.conn.IsClosed() {
		return nil
	}
	return q.conn.Drain()
}
