package models

// Action labels how a visitor reached a decision. It feeds audit events and
// metrics; it is never persisted in the record itself.
type Action string

const (
	ActionAcceptAll Action = "accept_all"
	ActionRejectAll Action = "reject_all"
	ActionCustom    Action = "custom"
)

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	return a == ActionAcceptAll || a == ActionRejectAll || a == ActionCustom
}

// Flags resolves the action to the category flags it commits. Custom actions
// carry their own flags and resolve through the request DTO instead.
func (a Action) Flags() (CategoryFlags, bool) {
	switch a {
	case ActionAcceptAll:
		return AcceptAllFlags(), true
	case ActionRejectAll:
		return RejectAllFlags(), true
	}
	return CategoryFlags{}, false
}
