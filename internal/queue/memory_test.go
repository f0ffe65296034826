package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher_Publish(t *testing.T) {
	q := NewMemoryPublisher()
	ctx := context.Background()

	data := []byte(`{"run_id":"a"}`)
	require.NoError(t, q.Publish(ctx, "runs", data))
	data[2] = 'X'

	msgs := q.Messages("runs")
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"run_id":"a"}`, string(msgs[0]), "publisher must keep its own copy")
	assert.Equal(t, 0, q.GetPendingCount("other"))
}

func TestMemoryPublisher_PublishBatch(t *testing.T) {
	q := NewMemoryPublisher()

	n, err := q.PublishBatch(context.Background(), []BatchMessage{
		{Subject: "a", Data: []byte("1")},
		{Subject: "b", Data: []byte("2")},
		{Subject: "a", Data: []byte("3")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, q.GetPendingCount("a"))
	assert.Equal(t, "3", string(q.Messages("a")[1]))
}

func TestMemoryPublisher_Closed(t *testing.T) {
	q := NewMemoryPublisher()
	require.NoError(t, q.Close())

	assert.Error(t, q.Publish(context.Background(), "runs", []byte("x")))
	n, err := q.PublishBatch(context.Background(), []BatchMessage{{Subject: "runs"}})
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryPublisher_CancelledContext(t *testing.T) {
	q := NewMemoryPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, q.Publish(ctx, "runs", []byte("x")), context.Canceled)
}
