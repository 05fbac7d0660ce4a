// Package banner drives the consent prompt lifecycle for a single client
// session: when the prompt appears, which view it shows, and how user choices
// translate into consent decisions.
package banner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"physioflow/internal/consent/metrics"
	"physioflow/internal/consent/models"
	"physioflow/internal/consent/service"
)

// State is the banner's visibility state.
type State string

const (
	// StateHidden means no prompt is shown. This is both the initial state
	// and the terminal state after any decision.
	StateHidden State = "hidden"
	// StateVisibleMain shows the primary prompt with accept-all, reject-all,
	// and personalize choices.
	StateVisibleMain State = "visible_main"
	// StateVisibleSettings shows the per-category preference view.
	StateVisibleSettings State = "visible_settings"
)

// DefaultDisplayDelay is how long a first-time visitor browses before the
// prompt appears.
const DefaultDisplayDelay = time.Second

// ErrInvalidTransition is returned when an action is not legal in the
// machine's current state.
type ErrInvalidTransition struct {
	Action string
	State  State
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("banner: %s not allowed in state %s", e.Action, e.State)
}

// Machine is the banner state machine for one client session. All methods are
// safe for concurrent use; decision methods block on the underlying store
// write so a failed write leaves the prompt visible.
type Machine struct {
	session *service.Session
	logger  *slog.Logger
	metrics *metrics.Metrics
	delay   time.Duration

	mu    sync.Mutex
	state State
	draft models.CategoryFlags
	timer *time.Timer
}

// Option configures a Machine.
type Option func(*Machine)

// WithDisplayDelay overrides the delay before the prompt appears.
func WithDisplayDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.delay = d
		}
	}
}

// WithMetrics sets the metrics instance for impression counting.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mx
	}
}

// New builds a hidden banner machine for the session. Call Start to arm the
// display timer.
func New(session *service.Session, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		session: session,
		logger:  logger,
		delay:   DefaultDisplayDelay,
		state:   StateHidden,
		draft:   models.RejectAllFlags(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start arms the display timer. After the delay the prompt becomes visible,
// unless the client has decided in the meantime or the banner was already
// shown. Clients with a stored decision never see the prompt.
func (m *Machine) Start(ctx context.Context) {
	if m.session.HasConsent() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		return
	}
	m.timer = time.AfterFunc(m.delay, func() {
		m.show(ctx)
	})
}

func (m *Machine) show(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateHidden || m.session.HasConsent() {
		return
	}
	m.state = StateVisibleMain
	if m.metrics != nil {
		m.metrics.IncrementBannerImpressions()
	}
	if m.logger != nil {
		m.logger.InfoContext(ctx, "consent banner shown", "client_id", m.session.ClientID())
	}
}

// AcceptAll records an accept-all decision and hides the banner. Legal from
// both visible states.
func (m *Machine) AcceptAll(ctx context.Context) error {
	return m.decide(ctx, models.AcceptAllFlags(), models.ActionAcceptAll, StateVisibleMain, StateVisibleSettings)
}

// RejectAll records a reject-all decision and hides the banner. Only offered
// on the main view.
func (m *Machine) RejectAll(ctx context.Context) error {
	return m.decide(ctx, models.RejectAllFlags(), models.ActionRejectAll, StateVisibleMain)
}

// Personalize switches from the main view to the settings view. The draft
// starts from the committed preferences when a decision exists, otherwise
// everything optional starts off.
func (m *Machine) Personalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateVisibleMain {
		return &ErrInvalidTransition{Action: "personalize", State: m.state}
	}
	m.draft = m.committedOrDefaults()
	m.state = StateVisibleSettings
	return nil
}

// Dismiss hides the main view without recording anything. The client stays
// undecided and the prompt returns on the next session.
func (m *Machine) Dismiss() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateVisibleMain {
		return &ErrInvalidTransition{Action: "dismiss", State: m.state}
	}
	m.state = StateHidden
	return nil
}

// Toggle flips a category in the settings draft. Nothing is persisted until
// SavePreferences. Toggling the necessary category is a no-op.
func (m *Machine) Toggle(category models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateVisibleSettings {
		return &ErrInvalidTransition{Action: "toggle", State: m.state}
	}
	if !category.IsValid() {
		return fmt.Errorf("banner: unknown category %q", category)
	}
	m.draft = m.draft.WithCategory(category, !m.draft.Granted(category))
	return nil
}

// SavePreferences commits the settings draft as a custom decision and hides
// the banner.
func (m *Machine) SavePreferences(ctx context.Context) error {
	m.mu.Lock()
	draft := m.draft
	m.mu.Unlock()
	return m.decide(ctx, draft, models.ActionCustom, StateVisibleSettings)
}

// Back returns from the settings view to the main view, discarding draft
// edits.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateVisibleSettings {
		return &ErrInvalidTransition{Action: "back", State: m.state}
	}
	m.draft = m.committedOrDefaults()
	m.state = StateVisibleMain
	return nil
}

// Close stops the display timer. Safe to call in any state.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// State returns the current visibility state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns the current settings draft.
func (m *Machine) Draft() models.CategoryFlags {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// decide commits a decision through the session and hides the banner. On
// persistence failure the state does not change, so the prompt stays up and
// the client can retry.
func (m *Machine) decide(ctx context.Context, flags models.CategoryFlags, action models.Action, from ...State) error {
	m.mu.Lock()
	if !stateIn(m.state, from) {
		state := m.state
		m.mu.Unlock()
		return &ErrInvalidTransition{Action: string(action), State: state}
	}
	m.mu.Unlock()

	if err := m.session.UpdateConsent(ctx, flags, action); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = StateHidden
	m.draft = flags.Normalized()
	m.mu.Unlock()
	return nil
}

func (m *Machine) committedOrDefaults() models.CategoryFlags {
	if prefs := m.session.Preferences(); prefs != nil {
		return *prefs
	}
	return models.RejectAllFlags()
}

func stateIn(s State, allowed []State) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
