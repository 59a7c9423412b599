package rpc

import (
	"fmt"
	"strings"
	"time"
)

// PassStatus is the lifecycle state of an exit pass as reported by the backend.
type PassStatus string

// Pass statuses as sent by the backend.
const (
	// StatusPending awaits an approver.
	StatusPending   PassStatus = "PENDING"
	// StatusApproved may be used at the gate within its window.
	StatusApproved  PassStatus = "APPROVED"
	// StatusRejected was refused by an approver.
	StatusRejected  PassStatus = "REJECTED"
	// StatusExpired passed its window unused.
	StatusExpired   PassStatus = "EXPIRED"
	// StatusExited has left the premises.
	StatusExited    PassStatus = "EXITED"
	// StatusReturned came back through the gate.
	StatusReturned  PassStatus = "RETURNED"
	// StatusNotExited was approved but never used.
	StatusNotExited PassStatus = "NOT_EXITED"
)

var statusLabels = map[PassStatus]string{
	StatusPending:   "Pending",
	StatusApproved:  "Approved",
	StatusRejected:  "Rejected",
	StatusExpired:   "Expired",
	StatusExited:    "Exited",
	StatusReturned:  "Returned",
	StatusNotExited: "Not Exited",
}

// Label returns the display label. Unknown statuses are shown verbatim.
func (s PassStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Decision is an approver's verdict.
type Decision string

// Approver verdicts accepted by approvePass.
const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Valid reports whether d is approve or reject.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Movement is a gate event logged by a guard.
type Movement string

// Gate movements accepted by updateMovementStatus.
const (
	MovementExited   Movement = "EXITED"
	MovementReturned Movement = "RETURNED"
)

// Valid reports whether m is an exit or a return.
func (m Movement) Valid() bool {
	return m == MovementExited || m == MovementReturned
}

// LoginPayload is the identity returned by loginUser.
type LoginPayload struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
}

// Pass is one exit pass record. Timestamps are kept as the backend sent them;
// use [ParseTime] to interpret them.
type Pass struct {
	PassID       string     `json:"pass_id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name,omitempty"`
	Department   string     `json:"department,omitempty"`
	Reason       string     `json:"reason"`
	ExitFrom     string     `json:"exit_from"`
	ExitTo       string     `json:"exit_to"`
	Status       PassStatus `json:"status"`
	ApproverName string     `json:"approver_name,omitempty"`
	ApprovedAt   string     `json:"approved_at,omitempty"`
	ExitTime     string     `json:"exit_time,omitempty"`
	ReturnTime   string     `json:"return_time,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
}

// TimeRemaining describes how long the pass window stays open at now, for
// example "2h 5m remaining". expired is true once exit_to has passed; ok is
// false when exit_to is missing or unparsable.
func (p Pass) TimeRemaining(now time.Time) (text string, expired bool, ok bool) {
	end, ok := ParseTime(p.ExitTo)
	if !ok {
		return "", false, false
	}
	diff := end.Sub(now)
	if diff <= 0 {
		return "Expired", true, true
	}
	mins := int(diff / time.Minute)
	hours := mins / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm remaining", hours, mins%60), false, true
	}
	return fmt.Sprintf("%dm remaining", mins), false, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a backend timestamp. ok is false for empty or
// unrecognized input; callers decide how to show that.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PassList is returned by getMyPasses, getPendingPasses and getAllPasses.
type PassList struct {
	Passes []Pass `json:"passes"`
}

// CreatePassPayload is returned by createExitPass.
type CreatePassPayload struct {
	PassID    string     `json:"pass_id"`
	Status    PassStatus `json:"status,omitempty"`
	VerifyURL string     `json:"verify_url,omitempty"`
}

// ApprovePayload is returned by approvePass.
type ApprovePayload struct {
	PassID string     `json:"pass_id"`
	Status PassStatus `json:"status"`
}

// VerifyPayload is returned by verifyPass.
type VerifyPayload struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Pass    *Pass  `json:"pass,omitempty"`
}

// MovementPayload is returned by updateMovementStatus.
type MovementPayload struct {
	PassID    string     `json:"pass_id"`
	Movement  Movement   `json:"movement"`
	Status    PassStatus `json:"status,omitempty"`
	Timestamp string     `json:"timestamp,omitempty"`
}

// GuardLogEntry is one gate movement.
type GuardLogEntry struct {
	PassID    string   `json:"pass_id"`
	UserID    string   `json:"user_id"`
	Name      string   `json:"name,omitempty"`
	Movement  Movement `json:"movement"`
	GuardName string   `json:"guard_name,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// GuardLog is returned by getGuardLog.
type GuardLog struct {
	Logs []GuardLogEntry `json:"logs"`
}

// Stats holds the dashboard counters.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Exited   int `json:"exited"`
	Returned int `json:"returned"`
	Expired  int `json:"expired"`
	Today    int `json:"today"`
}

// StatsPayload is returned by getStats.
type StatsPayload struct {
	Stats Stats `json:"stats"`
}
