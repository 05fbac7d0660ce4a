package service

import (
	"context"
	"sync"

	"physioflow/internal/consent/models"
)

// Session is the per-client consent state: the stored decision adopted into
// memory plus the derived projections the rest of the application reads. It
// is created via Manager.Open and is the only writer for its client, so the
// store sees a single logical writer per record.
//
// Ordering guarantee: UpdateConsent completes the store write before the new
// state or any side effect becomes observable; there is no
// eventual-consistency window between storage and projections.
type Session struct {
	manager  *Manager
	clientID string

	mu          sync.Mutex
	preferences *models.CategoryFlags
	hasConsent  bool
}

// ClientID returns the client this session belongs to.
func (s *Session) ClientID() string {
	return s.clientID
}

// UpdateConsent commits a new decision: persist first, then adopt the state,
// then re-enable granted integrations. On persistence failure nothing
// changes: the session keeps its previous state and the error is returned.
func (s *Session) UpdateConsent(ctx context.Context, flags models.CategoryFlags, action models.Action) error {
	record, err := s.manager.persistDecision(ctx, s.clientID, flags, action)
	if err != nil {
		return err
	}
	s.adopt(record)
	s.manager.enable(ctx, record.Preferences)
	return nil
}

// ClearConsent deletes the stored record and resets the session to the
// undecided state. It does not command banner visibility; the banner reacts
// to the absence of stored consent on its own.
func (s *Session) ClearConsent(ctx context.Context) error {
	if err := s.manager.Clear(ctx, s.clientID); err != nil {
		return err
	}
	s.mu.Lock()
	s.preferences = nil
	s.hasConsent = false
	s.mu.Unlock()
	return nil
}

// HasConsent reports whether a decision has been adopted.
func (s *Session) HasConsent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasConsent
}

// Preferences returns a copy of the adopted flags, or nil when undecided.
func (s *Session) Preferences() *models.CategoryFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preferences == nil {
		return nil
	}
	flags := *s.preferences
	return &flags
}

// IsAnalyticsAllowed reports whether analytics tooling may run.
func (s *Session) IsAnalyticsAllowed() bool {
	return s.allowed(models.CategoryAnalytics)
}

// IsMarketingAllowed reports whether marketing integrations may run.
func (s *Session) IsMarketingAllowed() bool {
	return s.allowed(models.CategoryMarketing)
}

// IsPreferencesAllowed reports whether preference features may run.
func (s *Session) IsPreferencesAllowed() bool {
	return s.allowed(models.CategoryPreferences)
}

// allowed is false whenever no decision has been adopted.
func (s *Session) allowed(category models.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preferences == nil {
		return false
	}
	return s.preferences.Granted(category)
}

func (s *Session) adopt(record *models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags := record.Preferences
	s.preferences = &flags
	s.hasConsent = true
}
