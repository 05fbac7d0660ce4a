//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioflow/internal/consent/models"
	"physioflow/internal/consent/store"
	"physioflow/pkg/testutil/containers"
)

func TestPostgresStore_Integration(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	pg := store.NewPostgres(pc.DB)

	reset := func() {
		require.NoError(t, pc.TruncateTables(ctx, "consent_records"))
	}

	t.Run("round trip", func(t *testing.T) {
		reset()
		record, err := models.NewRecord(models.AcceptAllFlags(), time.Now())
		require.NoError(t, err)

		require.NoError(t, pg.Save(ctx, "client-1", record))

		loaded, err := pg.Load(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, record.Preferences, loaded.Preferences)
		assert.Equal(t, record.Version, loaded.Version)
		assert.True(t, record.Timestamp.Equal(loaded.Timestamp))
	})

	t.Run("save replaces prior record", func(t *testing.T) {
		reset()
		first, err := models.NewRecord(models.AcceptAllFlags(), time.Now())
		require.NoError(t, err)
		require.NoError(t, pg.Save(ctx, "client-1", first))

		second, err := models.NewRecord(models.RejectAllFlags(), time.Now())
		require.NoError(t, err)
		require.NoError(t, pg.Save(ctx, "client-1", second))

		loaded, err := pg.Load(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryFlags{Necessary: true}, loaded.Preferences)
	})

	t.Run("absent record", func(t *testing.T) {
		reset()
		_, err := pg.Load(ctx, "never-seen")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		reset()
		record, err := models.NewRecord(models.AcceptAllFlags(), time.Now())
		require.NoError(t, err)
		require.NoError(t, pg.Save(ctx, "client-1", record))

		require.NoError(t, pg.Clear(ctx, "client-1"))
		require.NoError(t, pg.Clear(ctx, "client-1"))

		_, err = pg.Load(ctx, "client-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("corrupt record is discarded on load", func(t *testing.T) {
		reset()
		_, err := pc.DB.ExecContext(ctx,
			`INSERT INTO consent_records (client_id, record) VALUES ($1, $2)`,
			"client-1", `{"version":"9.9"}`)
		require.NoError(t, err)

		_, err = pg.Load(ctx, "client-1")
		require.ErrorIs(t, err, store.ErrNotFound)

		var count int
		require.NoError(t, pc.DB.QueryRowContext(ctx,
			`SELECT count(*) FROM consent_records WHERE client_id = $1`, "client-1").Scan(&count))
		assert.Zero(t, count, "corrupt row removed")
	})
}
