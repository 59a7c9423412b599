package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingParam is returned when a request lacks a required field.
var ErrMissingParam = errors.New("missing required parameter")

// ErrInvalidParam is returned when a request field holds a value outside its
// allowed set.
var ErrInvalidParam = errors.New("invalid parameter")

// Request is one of the ten action requests defined in this package.
type Request interface {
	Action() Action
	validate() error
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParam, name)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// encodeRequest marshals req and adds the "action" tag beside its fields.
func encodeRequest(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	action, err := json.Marshal(req.Action())
	if err != nil {
		return nil, err
	}
	fields["action"] = action
	return json.Marshal(fields)
}

// LoginRequest identifies a user by id.
type LoginRequest struct {
	UserID string `json:"user_id"`
}

// NewLoginRequest builds a [LoginRequest].
func NewLoginRequest(userID string) (LoginRequest, error) {
	r := LoginRequest{UserID: userID}
	return r, r.validate()
}

func (LoginRequest) Action() Action { return ActionLoginUser }

func (r LoginRequest) validate() error {
	if blank(r.UserID) {
		return missing("user_id")
	}
	return nil
}

// CreatePassRequest asks for a new exit pass. Times travel as ISO-8601.
type CreatePassRequest struct {
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	ExitFrom time.Time `json:"exit_from"`
	ExitTo   time.Time `json:"exit_to"`
}

// NewCreatePassRequest builds a [CreatePassRequest].
func NewCreatePassRequest(userID, reason string, exitFrom, exitTo time.Time) (CreatePassRequest, error) {
	r := CreatePassRequest{
		UserID:   userID,
		Reason:   reason,
		ExitFrom: exitFrom.UTC(),
		ExitTo:   exitTo.UTC(),
	}
	return r, r.validate()
}

func (CreatePassRequest) Action() Action { return ActionCreateExitPass }

func (r CreatePassRequest) validate() error {
	switch {
	case blank(r.UserID):
		return missing("user_id")
	case blank(r.Reason):
		return missing("reason")
	case r.ExitFrom.IsZero():
		return missing("exit_from")
	case r.ExitTo.IsZero():
		return missing("exit_to")
	}
	return nil
}

// MyPassesRequest lists the passes of one employee.
type MyPassesRequest struct {
	UserID string `json:"user_id"`
}

func (MyPassesRequest) Action() Action { return ActionGetMyPasses }

func (r MyPassesRequest) validate() error {
	if blank(r.UserID) {
		return missing("user_id")
	}
	return nil
}

// PendingPassesRequest lists passes awaiting a decision.
type PendingPassesRequest struct{}

func (PendingPassesRequest) Action() Action { return ActionGetPendingPasses }

func (PendingPassesRequest) validate() error { return nil }

// AllPassesRequest lists the most recent passes.
type AllPassesRequest struct {
	Limit int `json:"limit"`
}

func (AllPassesRequest) Action() Action { return ActionGetAllPasses }

func (r AllPassesRequest) validate() error {
	if r.Limit <= 0 {
		return missing("limit")
	}
	return nil
}

// ApproveRequest records an approver's decision on a pass.
type ApproveRequest struct {
	PassID       string   `json:"pass_id"`
	Status       Decision `json:"status"`
	ApproverName string   `json:"approver_name"`
}

// NewApproveRequest builds an [ApproveRequest].
func NewApproveRequest(passID string, status Decision, approverName string) (ApproveRequest, error) {
	r := ApproveRequest{PassID: passID, Status: status, ApproverName: approverName}
	return r, r.validate()
}

func (ApproveRequest) Action() Action { return ActionApprovePass }

func (r ApproveRequest) validate() error {
	switch {
	case blank(r.PassID):
		return missing("pass_id")
	case r.Status == "":
		return missing("status")
	case !r.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidParam, r.Status)
	case blank(r.ApproverName):
		return missing("approver_name")
	}
	return nil
}

// VerifyRequest looks up a pass from its QR landing id.
type VerifyRequest struct {
	PassID string `json:"pass_id"`
}

func (VerifyRequest) Action() Action { return ActionVerifyPass }

func (r VerifyRequest) validate() error {
	if blank(r.PassID) {
		return missing("pass_id")
	}
	return nil
}

// MovementRequest records a guard logging an exit or a return.
type MovementRequest struct {
	PassID    string   `json:"pass_id"`
	Movement  Movement `json:"movement"`
	GuardName string   `json:"guard_name"`
}

// NewMovementRequest builds a [MovementRequest].
func NewMovementRequest(passID string, movement Movement, guardName string) (MovementRequest, error) {
	r := MovementRequest{PassID: passID, Movement: movement, GuardName: guardName}
	return r, r.validate()
}

func (MovementRequest) Action() Action { return ActionUpdateMovementStatus }

func (r MovementRequest) validate() error {
	switch {
	case blank(r.PassID):
		return missing("pass_id")
	case r.Movement == "":
		return missing("movement")
	case !r.Movement.Valid():
		return fmt.Errorf("%w: movement %q", ErrInvalidParam, r.Movement)
	case blank(r.GuardName):
		return missing("guard_name")
	}
	return nil
}

// GuardLogRequest lists recent gate movements.
type GuardLogRequest struct {
	Limit int `json:"limit"`
}

func (GuardLogRequest) Action() Action { return ActionGetGuardLog }

func (r GuardLogRequest) validate() error {
	if r.Limit <= 0 {
		return missing("limit")
	}
	return nil
}

// StatsRequest fetches dashboard counters.
type StatsRequest struct{}

func (StatsRequest) Action() Action { return ActionGetStats }

func (StatsRequest) validate() error { return nil }
