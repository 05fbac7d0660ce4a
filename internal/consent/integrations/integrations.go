package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"physioflow/internal/consent/models"
)

// InitFunc enables an external integration (analytics tooling, marketing
// pixels, preference features). Initializers must be idempotent: the consent
// engine re-invokes them on every decision, not only on flag changes.
type InitFunc func(ctx context.Context) error

// Registry maps consent categories to integration initializers. The consent
// engine only decides WHETHER a hook runs, never how it behaves. A table
// instead of per-category branching keeps new categories a registration away.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	inits map[models.Category]InitFunc
}

// New constructs an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		inits:  make(map[models.Category]InitFunc),
	}
}

// Register binds an initializer to an optional category. The necessary
// category carries no integration: it is always on and has nothing to enable.
func (r *Registry) Register(category models.Category, fn InitFunc) error {
	if !category.IsValid() || category == models.CategoryNecessary {
		return fmt.Errorf("category %q cannot carry an integration", category)
	}
	if fn == nil {
		return fmt.Errorf("initializer is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits[category] = fn
	return nil
}

// Enable runs the initializer for every optional category the flags grant.
// Initializer failures are logged and swallowed: a broken tag loader must
// never break the consent flow itself.
func (r *Registry) Enable(ctx context.Context, flags models.CategoryFlags) {
	if r == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, category := range models.OptionalCategories {
		if !flags.Granted(category) {
			continue
		}
		fn, ok := r.inits[category]
		if !ok {
			continue
		}
		if err := fn(ctx); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "integration initializer failed",
				"category", category,
				"error", err,
			)
		}
	}
}
