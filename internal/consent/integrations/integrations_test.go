package integrations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioflow/internal/consent/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterRejectsNecessaryAndUnknownCategories(t *testing.T) {
	registry := New(discardLogger())

	err := registry.Register(models.CategoryNecessary, func(context.Context) error { return nil })
	require.Error(t, err)

	err = registry.Register(models.Category("tracking"), func(context.Context) error { return nil })
	require.Error(t, err)

	err = registry.Register(models.CategoryAnalytics, nil)
	require.Error(t, err)
}

func TestEnableRunsOnlyGrantedCategories(t *testing.T) {
	registry := New(discardLogger())
	calls := map[models.Category]int{}
	for _, category := range models.OptionalCategories {
		category := category
		require.NoError(t, registry.Register(category, func(context.Context) error {
			calls[category]++
			return nil
		}))
	}

	registry.Enable(context.Background(), models.CategoryFlags{Necessary: true, Analytics: true, Preferences: true})

	assert.Equal(t, 1, calls[models.CategoryAnalytics])
	assert.Equal(t, 0, calls[models.CategoryMarketing])
	assert.Equal(t, 1, calls[models.CategoryPreferences])
}

func TestEnableRetriggersOnEveryCall(t *testing.T) {
	registry := New(discardLogger())
	calls := 0
	require.NoError(t, registry.Register(models.CategoryAnalytics, func(context.Context) error {
		calls++
		return nil
	}))

	flags := models.CategoryFlags{Necessary: true, Analytics: true}
	registry.Enable(context.Background(), flags)
	registry.Enable(context.Background(), flags)

	assert.Equal(t, 2, calls, "initializers re-run on every decision")
}

func TestEnableSwallowsInitializerErrors(t *testing.T) {
	registry := New(discardLogger())
	require.NoError(t, registry.Register(models.CategoryMarketing, func(context.Context) error {
		return errors.New("pixel endpoint unreachable")
	}))

	assert.NotPanics(t, func() {
		registry.Enable(context.Background(), models.AcceptAllFlags())
	})
}
