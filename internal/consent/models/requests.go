package models

// DecisionRequest is the HTTP payload for recording a consent decision.
// Custom decisions must carry explicit preferences; accept/reject resolve to
// the canonical flag sets server-side.
type DecisionRequest struct {
	Action      Action         `json:"action" validate:"required,oneof=accept_all reject_all custom"`
	Preferences *CategoryFlags `json:"preferences" validate:"required_if=Action custom"`
}

// Flags resolves the request to the normalized category flags to commit.
func (r *DecisionRequest) Flags() CategoryFlags {
	if flags, ok := r.Action.Flags(); ok {
		return flags
	}
	if r.Preferences == nil {
		return RejectAllFlags()
	}
	return r.Preferences.Normalized()
}
