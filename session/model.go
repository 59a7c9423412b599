package session

import "time"

// Role is the authorization class carried by a [Session].
type Role string

const (
	// RoleEmployee may request exit passes.
	RoleEmployee Role = "employee"
	// RoleApprover decides pending passes.
	RoleApprover Role = "approver"
	// RoleGuard logs physical movement at the gate.
	RoleGuard Role = "guard"
	// RoleAdmin shares the approver view; there is no separate admin view.
	RoleAdmin Role = "admin"
)

// Known reports whether r is one of the four roles the client can route.
func (r Role) Known() bool {
	switch r {
	case RoleEmployee, RoleApprover, RoleGuard, RoleAdmin:
		return true
	default:
		return false
	}
}

// Session is the persisted record of the currently authenticated identity.
//
// The JSON field names are the persisted format and must not change.
type Session struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Role       Role   `json:"role"`
	// LoggedInAt is milliseconds since the Unix epoch, stamped by Save.
	LoggedInAt int64 `json:"loggedInAt"`
}

// LoginResult is the identity payload returned by a successful login call.
type LoginResult struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Role       Role   `json:"role"`
}

// Valid reports whether every required field is populated. Unknown roles are
// still valid; they only affect routing.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Role != "" && s.LoggedInAt > 0
}

// LoginTime returns LoggedInAt as a time.Time.
func (s Session) LoginTime() time.Time {
	return time.UnixMilli(s.LoggedInAt)
}

// DisplayName falls back to the user id when no name was provided.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.UserID
}
