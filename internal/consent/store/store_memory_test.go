package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioflow/internal/consent/models"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	record, err := models.NewRecord(models.CategoryFlags{Analytics: true}, now)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "client-1", record))

	loaded, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestInMemoryStoreSaveReplacesPriorRecord(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	first, err := models.NewRecord(models.AcceptAllFlags(), now)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "client-1", first))

	second, err := models.NewRecord(models.RejectAllFlags(), now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "client-1", second))

	loaded, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
	assert.Equal(t, 1, store.Len(), "only the latest record survives")
}

func TestInMemoryStoreLoadAbsent(t *testing.T) {
	store := NewInMemory()

	record, err := store.Load(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, record)
}

func TestInMemoryStoreClearIsIdempotent(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	record, err := models.NewRecord(models.AcceptAllFlags(), now)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "client-1", record))

	require.NoError(t, store.Clear(ctx, "client-1"))
	_, err = store.Load(ctx, "client-1")
	require.ErrorIs(t, err, ErrNotFound)

	// Clearing again, and clearing a client that never existed, are no-ops.
	require.NoError(t, store.Clear(ctx, "client-1"))
	require.NoError(t, store.Clear(ctx, "never-seen"))
}

func TestInMemoryStoreDiscardsCorruptPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed text", `{{{definitely not json`},
		{"wrong version", `{"preferences":{"necessary":true,"analytics":false,"marketing":false,"preferences":false},"timestamp":"2026-01-02T15:04:05Z","version":"0.9"}`},
		{"necessary off", `{"preferences":{"necessary":false,"analytics":true,"marketing":true,"preferences":true},"timestamp":"2026-01-02T15:04:05Z","version":"1.0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemory()
			store.SeedRaw("client-1", []byte(tt.raw))

			record, err := store.Load(context.Background(), "client-1")
			require.ErrorIs(t, err, ErrNotFound)
			assert.Nil(t, record)
			assert.Equal(t, 0, store.Len(), "corrupt entry must be removed")
		})
	}
}
