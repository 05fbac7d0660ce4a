package models

import (
	"encoding/json"
	"time"

	dErrors "physioflow/pkg/domain-errors"
)

// RecordVersion is the persisted record schema version. A stored record with
// any other version is treated as corrupt and discarded on load.
const RecordVersion = "1.0"

// Category labels a class of cookies/data use a visitor can allow.
type Category string

const (
	CategoryNecessary   Category = "necessary"
	CategoryAnalytics   Category = "analytics"
	CategoryMarketing   Category = "marketing"
	CategoryPreferences Category = "preferences"
)

// OptionalCategories is the single source of truth for every category a
// visitor can actually toggle. Side-effect fan-out and draft toggling iterate
// this list instead of branching per category, so adding a category is a
// one-line change here plus an integration hook.
var OptionalCategories = []Category{
	CategoryAnalytics,
	CategoryMarketing,
	CategoryPreferences,
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryNecessary, CategoryAnalytics, CategoryMarketing, CategoryPreferences:
		return true
	}
	return false
}

// CategoryFlags captures a visitor's decision per category.
//
// Invariant: Necessary is never observably false. Normalized() forces it on
// every write path, and Record.Validate rejects stored payloads that carry
// necessary=false, so a violated invariant is handled as corruption rather
// than adopted into state.
type CategoryFlags struct {
	Necessary   bool `json:"necessary"`
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// Normalized returns a copy with the necessary flag forced on.
func (f CategoryFlags) Normalized() CategoryFlags {
	f.Necessary = true
	return f
}

// Granted reports whether the given category is allowed by these flags.
func (f CategoryFlags) Granted(c Category) bool {
	switch c {
	case CategoryNecessary:
		return f.Necessary
	case CategoryAnalytics:
		return f.Analytics
	case CategoryMarketing:
		return f.Marketing
	case CategoryPreferences:
		return f.Preferences
	}
	return false
}

// WithCategory returns a copy with the given category set to the given value.
// Setting CategoryNecessary is a no-op: the flag cannot be turned off, and
// it is already on in any normalized flag set.
func (f CategoryFlags) WithCategory(c Category, granted bool) CategoryFlags {
	switch c {
	case CategoryAnalytics:
		f.Analytics = granted
	case CategoryMarketing:
		f.Marketing = granted
	case CategoryPreferences:
		f.Preferences = granted
	}
	return f
}

// AcceptAllFlags returns flags with every category granted.
func AcceptAllFlags() CategoryFlags {
	return CategoryFlags{Necessary: true, Analytics: true, Marketing: true, Preferences: true}
}

// RejectAllFlags returns flags with only the necessary category granted.
func RejectAllFlags() CategoryFlags {
	return CategoryFlags{Necessary: true}
}

// Record is the persisted decision artifact. It is created exactly once per
// visitor decision and fully replaces any prior record; no history is kept.
//
// Wire layout (single key per client):
//
//	{"preferences":{"necessary":true,"analytics":false,"marketing":false,"preferences":false},
//	 "timestamp":"2026-01-02T15:04:05Z","version":"1.0"}
type Record struct {
	Preferences CategoryFlags `json:"preferences"`
	Timestamp   time.Time     `json:"timestamp"`
	Version     string        `json:"version"`
}

// NewRecord creates a Record with domain invariant checks. Flags are
// normalized so the necessary category is granted regardless of input.
func NewRecord(flags CategoryFlags, now time.Time) (*Record, error) {
	if now.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "decision time required")
	}
	return &Record{
		Preferences: flags.Normalized(),
		Timestamp:   now.UTC(),
		Version:     RecordVersion,
	}, nil
}

// Validate defines structural validity for a stored record. A record that
// fails validation is handled as the corrupt-storage case: discarded and
// reported absent, never adopted into state.
func (r *Record) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}
	if r.Version != RecordVersion {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown record version")
	}
	if r.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "record timestamp required")
	}
	if !r.Preferences.Necessary {
		return dErrors.New(dErrors.CodeInvariantViolation, "necessary category must be granted")
	}
	return nil
}

// GrantedCategories lists the optional categories this record allows, in the
// canonical category order.
func (r *Record) GrantedCategories() []Category {
	var granted []Category
	for _, c := range OptionalCategories {
		if r.Preferences.Granted(c) {
			granted = append(granted, c)
		}
	}
	return granted
}

// DecodeRecord parses and validates a stored payload. Any failure means the
// payload is corrupt from the store's point of view.
func DecodeRecord(raw []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed consent record")
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}
