package store

import (
	"context"
	"errors"
	"log/slog"

	"physioflow/internal/consent/metrics"
	"physioflow/internal/consent/models"
)

// ErrNotFound reports that no consent record exists for the client.
var ErrNotFound = errors.New("consent record not found")

// Store persists at most one consent record per client.
//
// Error Contract:
// - Load returns ErrNotFound when no record exists. A stored payload that is
//   structurally invalid is discarded (removal is best-effort) and reported
//   as ErrNotFound; corruption never surfaces to callers.
// - Save atomically replaces any prior record; no partial write is observable.
// - Clear is idempotent: clearing an absent record is a no-op, not an error.
// - Other failures are wrapped infrastructure errors.
type Store interface {
	Load(ctx context.Context, clientID string) (*models.Record, error)
	Save(ctx context.Context, clientID string, record *models.Record) error
	Clear(ctx context.Context, clientID string) error
}

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a store implementation.
type Option func(*options)

// WithLogger sets a logger for corruption-recovery reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics instance used to count recovered records.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// recovered reports a corrupt payload that was discarded on load.
func (o options) recovered(ctx context.Context, clientID string, err error) {
	if o.logger != nil {
		o.logger.WarnContext(ctx, "discarded corrupt consent record",
			"client_id", clientID,
			"error", err,
		)
	}
	if o.metrics != nil {
		o.metrics.IncrementCorruptRecordsRecovered()
	}
}
