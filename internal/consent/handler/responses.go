package handler

import (
	"time"

	"physioflow/internal/consent/models"
)

// StateResponse is the consent state as the frontend consumes it: the stored
// flags plus the per-concern projections, so callers do not re-derive policy
// (like "undecided means nothing is allowed") on their side.
type StateResponse struct {
	HasConsent  bool                  `json:"hasConsent"`
	Preferences *models.CategoryFlags `json:"preferences,omitempty"`
	Allowed     CategoryAllowedView   `json:"allowed"`
	DecidedAt   *time.Time            `json:"decidedAt,omitempty"`
	Version     string                `json:"version,omitempty"`
}

// CategoryAllowedView flattens the optional categories into booleans.
type CategoryAllowedView struct {
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// DecisionResponse is returned after a decision is recorded.
type DecisionResponse struct {
	State   StateResponse `json:"state"`
	Message string        `json:"message"`
}

// SettingsResponse describes the consent categories for the settings view,
// plus the banner timing the frontend should honor.
type SettingsResponse struct {
	Categories       []CategoryDescription `json:"categories"`
	PrivacyPolicyURL string                `json:"privacyPolicyUrl,omitempty"`
	BannerDelayMs    int64                 `json:"bannerDelayMs"`
}

// CategoryDescription is the static metadata for one consent category.
type CategoryDescription struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Required bool   `json:"required"`
}

func newStateResponse(record *models.Record) StateResponse {
	if record == nil {
		return StateResponse{}
	}
	flags := record.Preferences
	decidedAt := record.Timestamp
	return StateResponse{
		HasConsent:  true,
		Preferences: &flags,
		Allowed: CategoryAllowedView{
			Analytics:   flags.Analytics,
			Marketing:   flags.Marketing,
			Preferences: flags.Preferences,
		},
		DecidedAt: &decidedAt,
		Version:   record.Version,
	}
}

func categoryDescriptions() []CategoryDescription {
	return []CategoryDescription{
		{
			ID:       string(models.CategoryNecessary),
			Name:     "Strictly necessary",
			Purpose:  "Session handling and storing your consent choice itself. Always active.",
			Required: true,
		},
		{
			ID:      string(models.CategoryAnalytics),
			Name:    "Analytics",
			Purpose: "Anonymous usage statistics that help us improve the site.",
		},
		{
			ID:      string(models.CategoryMarketing),
			Name:    "Marketing",
			Purpose: "Personalized offers and campaign measurement.",
		},
		{
			ID:      string(models.CategoryPreferences),
			Name:    "Preferences",
			Purpose: "Remembering choices like language and appointment reminders.",
		},
	}
}
