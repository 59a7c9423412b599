package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// decode turns a raw reply into the typed result for one action. A
// successful reply whose payload does not fit T becomes a failure.
func decode[T any](raw Result[json.RawMessage]) Result[T] {
	out := Result[T]{Success: raw.Success, Error: raw.Error}
	if len(raw.Data) == 0 {
		return out
	}
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		if raw.Success {
			return Failure[T](fmt.Sprintf("invalid response payload: %v", err))
		}
	}
	return out
}

func send[T any](ctx context.Context, g *Gateway, req Request) Result[T] {
	return decode[T](g.Call(ctx, req))
}

// LoginUser resolves a user id to an identity.
func (g *Gateway) LoginUser(ctx context.Context, userID string) Result[LoginPayload] {
	return send[LoginPayload](ctx, g, LoginRequest{UserID: userID})
}

// CreateExitPass submits a new pass request.
func (g *Gateway) CreateExitPass(ctx context.Context, req CreatePassRequest) Result[CreatePassPayload] {
	return send[CreatePassPayload](ctx, g, req)
}

// GetMyPasses lists the passes of userID.
func (g *Gateway) GetMyPasses(ctx context.Context, userID string) Result[PassList] {
	return send[PassList](ctx, g, MyPassesRequest{UserID: userID})
}

// GetPendingPasses lists passes awaiting approval.
func (g *Gateway) GetPendingPasses(ctx context.Context) Result[PassList] {
	return send[PassList](ctx, g, PendingPassesRequest{})
}

// GetAllPasses lists recent passes. A limit <= 0 sends [DefaultAllPassesLimit].
func (g *Gateway) GetAllPasses(ctx context.Context, limit int) Result[PassList] {
	if limit <= 0 {
		limit = DefaultAllPassesLimit
	}
	return send[PassList](ctx, g, AllPassesRequest{Limit: limit})
}

// ApprovePass approves or rejects a pass.
func (g *Gateway) ApprovePass(ctx context.Context, req ApproveRequest) Result[ApprovePayload] {
	return send[ApprovePayload](ctx, g, req)
}

// VerifyPass checks a pass by id.
func (g *Gateway) VerifyPass(ctx context.Context, passID string) Result[VerifyPayload] {
	return send[VerifyPayload](ctx, g, VerifyRequest{PassID: passID})
}

// UpdateMovementStatus logs an exit or return at the gate.
func (g *Gateway) UpdateMovementStatus(ctx context.Context, req MovementRequest) Result[MovementPayload] {
	return send[MovementPayload](ctx, g, req)
}

// GetGuardLog lists recent movements. A limit <= 0 sends [DefaultGuardLogLimit].
func (g *Gateway) GetGuardLog(ctx context.Context, limit int) Result[GuardLog] {
	if limit <= 0 {
		limit = DefaultGuardLogLimit
	}
	return send[GuardLog](ctx, g, GuardLogRequest{Limit: limit})
}

// GetStats fetches dashboard counters.
func (g *Gateway) GetStats(ctx context.Context) Result[StatsPayload] {
	return send[StatsPayload](ctx, g, StatsRequest{})
}
