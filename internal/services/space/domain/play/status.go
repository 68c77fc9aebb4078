// Package play models the two-role private-space game: session lifecycle,
// adult levels, consent, boundaries, and the content category catalog.
package play

// Status describes the game session lifecycle label used by domain decisions.
type Status string

const (
	StatusUnspecified Status = ""
	StatusLobby       Status = "lobby"
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
)

// isStatusTransitionAllowed enforces the forward-only session lifecycle.
// Completed is terminal.
func isStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusLobby:
		return to == StatusActive || to == StatusCompleted
	case StatusActive:
		return to == StatusCompleted
	default:
		return false
	}
}

// IsStatusTransitionAllowed reports whether a status transition is permitted.
func IsStatusTransitionAllowed(from, to Status) bool {
	return isStatusTransitionAllowed(from, to)
}

// Role identifies one of the two mutually exclusive game roles.
type Role string

const (
	RolePicker    Role = "picker"
	RoleResponder Role = "responder"
)
