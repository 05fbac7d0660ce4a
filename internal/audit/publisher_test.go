package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherSyncEmit(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	err := publisher.Emit(context.Background(), Event{
		ClientID:   "client-1",
		Action:     ActionDecisionRecorded,
		Decision:   "accept_all",
		Categories: []string{"analytics", "marketing", "preferences"},
	})
	require.NoError(t, err)

	events, err := store.ListByClient(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionDecisionRecorded, events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "emit stamps missing timestamps")
}

func TestPublisherAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store, WithAsyncBuffer(16))

	for i := 0; i < 10; i++ {
		require.NoError(t, publisher.Emit(context.Background(), Event{
			ClientID: "client-1",
			Action:   ActionConsentCleared,
		}))
	}
	publisher.Close()

	events, err := store.ListByClient(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisherPreservesExplicitTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	stamp := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	require.NoError(t, publisher.Emit(context.Background(), Event{
		ClientID:  "client-1",
		Action:    ActionConsentCleared,
		Timestamp: stamp,
	}))

	events, err := store.ListByClient(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stamp, events[0].Timestamp)
}
