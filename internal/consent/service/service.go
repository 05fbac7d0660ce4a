package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"physioflow/internal/audit"
	"physioflow/internal/consent/integrations"
	"physioflow/internal/consent/metrics"
	"physioflow/internal/consent/models"
	"physioflow/internal/consent/store"
	dErrors "physioflow/pkg/domain-errors"
	"physioflow/pkg/requestcontext"
)

// Store defines the persistence interface for consent records.
// Error Contract:
// - Load returns store.ErrNotFound when no record exists (corrupt payloads
//   are discarded by the store and reported the same way)
// - Save and Clear return nil on success or wrapped errors on failure
type Store interface {
	Load(ctx context.Context, clientID string) (*models.Record, error)
	Save(ctx context.Context, clientID string, record *models.Record) error
	Clear(ctx context.Context, clientID string) error
}

type Option func(*Manager)

// Manager owns the consent decision lifecycle: it is the sole writer to the
// Store, the single place integrations are fanned out from, and the factory
// for per-client Sessions.
type Manager struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      *audit.Publisher
	integrations *integrations.Registry
	now          func() time.Time
}

func NewManager(store Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithMetrics sets the metrics instance for the manager.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// WithAuditor sets the audit publisher for consent lifecycle events.
func WithAuditor(auditor *audit.Publisher) Option {
	return func(mgr *Manager) {
		mgr.auditor = auditor
	}
}

// WithIntegrations sets the category-to-initializer registry.
func WithIntegrations(registry *integrations.Registry) Option {
	return func(mgr *Manager) {
		mgr.integrations = registry
	}
}

// WithClock overrides the time source, used by tests for deterministic
// record timestamps.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) {
		if now != nil {
			mgr.now = now
		}
	}
}

// Current returns the stored record for the client, or nil when no decision
// exists. Infrastructure read failures degrade to "no decision": the consent
// system fails silent-and-safe, never reporting consent that is not durably
// stored.
func (m *Manager) Current(ctx context.Context, clientID string) (*models.Record, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing client context")
	}
	return m.loadSoft(ctx, clientID), nil
}

// Decide records a consent decision for the client: the new record fully
// replaces any prior one, and granted integrations are re-enabled. The write
// completes before anything else is observable; a failed write changes
// nothing.
func (m *Manager) Decide(ctx context.Context, clientID string, flags models.CategoryFlags, action models.Action) (*models.Record, error) {
	record, err := m.persistDecision(ctx, clientID, flags, action)
	if err != nil {
		return nil, err
	}
	m.enable(ctx, record.Preferences)
	return record, nil
}

// Clear deletes the client's consent record and returns the client to the
// undecided state. Clearing an absent record is a no-op.
func (m *Manager) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing client context")
	}
	prior := m.loadSoft(ctx, clientID)

	start := m.now()
	if err := m.store.Clear(ctx, clientID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear consent record")
	}
	m.observeStoreLatency("clear", start)

	m.emitAudit(ctx, audit.Event{
		ClientID:  clientID,
		Action:    audit.ActionConsentCleared,
		Timestamp: m.now(),
	})
	if m.metrics != nil {
		m.metrics.IncrementConsentsCleared()
		if prior != nil {
			m.metrics.DecrementActiveConsents()
		}
	}
	m.logDecision(ctx, clientID, "consent_cleared", "")
	return nil
}

// Open builds the per-client consent session: it adopts the stored decision
// when one exists and enables the integrations that decision grants. An
// absent (or unreadable, or corrupt) record yields an undecided session with
// no integrations enabled.
func (m *Manager) Open(ctx context.Context, clientID string) (*Session, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing client context")
	}
	session := &Session{manager: m, clientID: clientID}
	if record := m.loadSoft(ctx, clientID); record != nil {
		session.adopt(record)
		m.enable(ctx, record.Preferences)
	}
	return session, nil
}

// persistDecision validates, builds, and durably stores a new record. It does
// NOT run integrations; callers sequence that after their own state updates.
func (m *Manager) persistDecision(ctx context.Context, clientID string, flags models.CategoryFlags, action models.Action) (*models.Record, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing client context")
	}
	if !action.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid action: %s", action))
	}

	record, err := models.NewRecord(flags, m.now())
	if err != nil {
		return nil, err
	}

	prior := m.loadSoft(ctx, clientID)

	start := m.now()
	if err := m.store.Save(ctx, clientID, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent record")
	}
	m.observeStoreLatency("save", start)

	m.emitAudit(ctx, audit.Event{
		ClientID:   clientID,
		Action:     audit.ActionDecisionRecorded,
		Decision:   string(action),
		Categories: categoryNames(record.GrantedCategories()),
		Timestamp:  record.Timestamp,
	})
	if m.metrics != nil {
		m.metrics.IncrementDecisionsRecorded(string(action))
		m.metrics.ObserveDecisionLatency(m.now().Sub(start).Seconds())
		if prior == nil {
			m.metrics.IncrementActiveConsents()
		}
	}
	m.logDecision(ctx, clientID, "consent_decision_recorded", string(action))
	return record, nil
}

// loadSoft reads the client's record, mapping both "absent" and
// infrastructure read failures to nil. Read failures are logged and counted
// but never surfaced: an unreadable store means no consent is granted.
func (m *Manager) loadSoft(ctx context.Context, clientID string) *models.Record {
	start := m.now()
	record, err := m.store.Load(ctx, clientID)
	m.observeStoreLatency("load", start)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && m.logger != nil {
			m.logger.WarnContext(ctx, "consent store unreadable, treating as undecided",
				"client_id", clientID,
				"error", err,
			)
		}
		return nil
	}
	return record
}

func (m *Manager) enable(ctx context.Context, flags models.CategoryFlags) {
	if m.integrations != nil {
		m.integrations.Enable(ctx, flags)
	}
}

func (m *Manager) emitAudit(ctx context.Context, event audit.Event) {
	if m.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.UserAgent = requestcontext.Device(ctx)
	_ = m.auditor.Emit(ctx, event)
}

func (m *Manager) observeStoreLatency(operation string, start time.Time) {
	if m.metrics != nil {
		m.metrics.ObserveStoreOperationLatency(operation, m.now().Sub(start).Seconds())
	}
}

func (m *Manager) logDecision(ctx context.Context, clientID, msg, action string) {
	if m.logger == nil {
		return
	}
	attrs := []any{"client_id", clientID}
	if action != "" {
		attrs = append(attrs, "action", action)
	}
	m.logger.InfoContext(ctx, msg, attrs...)
}

func categoryNames(categories []models.Category) []string {
	var names []string
	for _, c := range categories {
		names = append(names, string(c))
	}
	return names
}
