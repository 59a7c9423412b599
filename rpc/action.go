package rpc

// Action is the wire name of a backend operation.
type Action string

// The backend actions. Each has a request type in this package.
const (
	// ActionLoginUser resolves a user id to an identity and role.
	ActionLoginUser Action = "loginUser"
	// ActionCreateExitPass submits a pass request for an employee.
	ActionCreateExitPass Action = "createExitPass"
	// ActionGetMyPasses lists one employee's passes.
	ActionGetMyPasses Action = "getMyPasses"
	// ActionGetPendingPasses lists passes awaiting a decision.
	ActionGetPendingPasses Action = "getPendingPasses"
	// ActionGetAllPasses lists recent passes up to a limit.
	ActionGetAllPasses Action = "getAllPasses"
	// ActionApprovePass records an approve or reject decision.
	ActionApprovePass Action = "approvePass"
	// ActionVerifyPass checks a pass at the gate.
	ActionVerifyPass Action = "verifyPass"
	// ActionUpdateMovementStatus logs an exit or a return.
	ActionUpdateMovementStatus Action = "updateMovementStatus"
	// ActionGetGuardLog lists recent gate movements up to a limit.
	ActionGetGuardLog Action = "getGuardLog"
	// ActionGetStats fetches the dashboard counters.
	ActionGetStats Action = "getStats"
)

// Actions lists every action in protocol order.
var Actions = []Action{
	ActionLoginUser,
	ActionCreateExitPass,
	ActionGetMyPasses,
	ActionGetPendingPasses,
	ActionGetAllPasses,
	ActionApprovePass,
	ActionVerifyPass,
	ActionUpdateMovementStatus,
	ActionGetGuardLog,
	ActionGetStats,
}

// Valid reports whether a is one of the ten known actions.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

const (
	// DefaultAllPassesLimit is sent by GetAllPasses when no limit is given.
	DefaultAllPassesLimit = 50
	// DefaultGuardLogLimit is sent by GetGuardLog when no limit is given.
	DefaultGuardLogLimit = 30
)
