package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/MrEthical07/exitpass"
	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

var errUsage = errors.New("invalid arguments")

// errNotAllowed is returned after the navigator has already moved away from a
// view the session may not open.
var errNotAllowed = errors.New("not signed in with a role that can use this command")

type cli struct {
	client *exitpass.Client
	out    io.Writer
	now    func() time.Time
}

func (c *cli) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return c.cmdLogin(ctx, args)
	case "logout":
		return c.cmdLogout(ctx)
	case "whoami", "me":
		return c.cmdWhoami(ctx)
	case "request":
		return c.cmdRequest(ctx, args)
	case "passes":
		return c.cmdPasses(ctx)
	case "pending":
		return c.cmdPending(ctx)
	case "history":
		return c.cmdHistory(ctx, args)
	case "approve":
		return c.cmdDecide(ctx, args, rpc.DecisionApproved)
	case "reject":
		return c.cmdDecide(ctx, args, rpc.DecisionRejected)
	case "stats":
		return c.cmdStats(ctx)
	case "verify":
		return c.cmdVerify(ctx, args)
	case "exit":
		return c.cmdMovement(ctx, args, rpc.MovementExited)
	case "return":
		return c.cmdMovement(ctx, args, rpc.MovementReturned)
	case "log":
		return c.cmdLog(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// gate admits the session to view or returns errNotAllowed.
func (c *cli) gate(ctx context.Context, view session.View) (session.Session, error) {
	s, ok := c.client.RequireAuth(ctx, session.ViewRoles(view)...)
	if !ok {
		return session.Session{}, errNotAllowed
	}
	return s, nil
}

func (c *cli) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: login takes exactly one user id", errUsage)
	}
	s, err := c.client.Login(ctx, args[0])
	if err != nil {
		var remote *rpc.RemoteError
		if errors.As(err, &remote) {
			return fmt.Errorf("login failed: %s", remote.Message)
		}
		return err
	}
	color.New(color.FgGreen).Fprintf(c.out, "  Welcome, %s\n", s.DisplayName())
	return nil
}

func (c *cli) cmdLogout(ctx context.Context) error {
	c.client.Logout(ctx)
	return nil
}

func (c *cli) cmdWhoami(ctx context.Context) error {
	s, ok := c.client.Session(ctx)
	if !ok {
		color.New(color.FgYellow).Fprintln(c.out, "  Not signed in.")
		return nil
	}
	renderSession(c.out, s, c.client.RouteFor(s.Role))
	return nil
}

func (c *cli) cmdRequest(ctx context.Context, args []string) error {
	s, err := c.gate(ctx, session.ViewRequest)
	if err != nil {
		return err
	}
	opts, err := parseRequestArgs(args, c.clock())
	if err != nil {
		return err
	}
	req, err := rpc.NewCreatePassRequest(s.UserID, opts.reason, opts.from, opts.to)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	res := c.client.Gateway().CreateExitPass(ctx, req)
	if !res.Success {
		return res.Err()
	}
	color.New(color.FgGreen).Fprintf(c.out, "  Pass %s created (%s)\n", res.Data.PassID, statusOrPending(res.Data.Status).Label())

	link := res.Data.VerifyURL
	if link == "" {
		link, _ = c.client.VerifyURL(res.Data.PassID)
	}
	if link != "" {
		fmt.Fprintf(c.out, "  Verify:  %s\n", link)
	}
	return nil
}

func (c *cli) cmdPasses(ctx context.Context) error {
	s, err := c.gate(ctx, session.ViewRequest)
	if err != nil {
		return err
	}
	res := c.client.Gateway().GetMyPasses(ctx, s.UserID)
	if !res.Success {
		return res.Err()
	}
	renderPasses(c.out, "My Passes", res.Data.Passes, c.clock())
	return nil
}

func (c *cli) cmdPending(ctx context.Context) error {
	if _, err := c.gate(ctx, session.ViewApprove); err != nil {
		return err
	}
	res := c.client.Gateway().GetPendingPasses(ctx)
	if !res.Success {
		return res.Err()
	}
	renderPasses(c.out, "Pending Passes", res.Data.Passes, c.clock())
	return nil
}

func (c *cli) cmdHistory(ctx context.Context, args []string) error {
	if _, err := c.gate(ctx, session.ViewApprove); err != nil {
		return err
	}
	limit, err := parseLimit(args)
	if err != nil {
		return err
	}
	res := c.client.Gateway().GetAllPasses(ctx, limit)
	if !res.Success {
		return res.Err()
	}
	renderPasses(c.out, "All Passes", res.Data.Passes, c.clock())
	return nil
}

func (c *cli) cmdDecide(ctx context.Context, args []string, decision rpc.Decision) error {
	s, err := c.gate(ctx, session.ViewApprove)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one pass id", errUsage)
	}
	req, err := rpc.NewApproveRequest(args[0], decision, s.DisplayName())
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	res := c.client.Gateway().ApprovePass(ctx, req)
	if !res.Success {
		return res.Err()
	}
	status := res.Data.Status
	if status == "" {
		status = rpc.PassStatus(decision)
	}
	statusColor(status).Fprintf(c.out, "  Pass %s %s\n", args[0], strings.ToLower(status.Label()))
	return nil
}

func (c *cli) cmdStats(ctx context.Context) error {
	if _, err := c.gate(ctx, session.ViewApprove); err != nil {
		return err
	}
	res := c.client.Gateway().GetStats(ctx)
	if !res.Success {
		return res.Err()
	}
	renderStats(c.out, res.Data.Stats)
	return nil
}

func (c *cli) cmdVerify(ctx context.Context, args []string) error {
	if _, err := c.gate(ctx, session.ViewGuard); err != nil {
		return err
	}
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: expected one pass id", errUsage)
	}
	res := c.client.Gateway().VerifyPass(ctx, args[0])
	if !res.Success {
		return res.Err()
	}
	renderVerify(c.out, res.Data, c.clock())
	return nil
}

func (c *cli) cmdMovement(ctx context.Context, args []string, movement rpc.Movement) error {
	s, err := c.gate(ctx, session.ViewGuard)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one pass id", errUsage)
	}
	req, err := rpc.NewMovementRequest(args[0], movement, s.DisplayName())
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	res := c.client.Gateway().UpdateMovementStatus(ctx, req)
	if !res.Success {
		return res.Err()
	}
	when := res.Data.Timestamp
	if when == "" {
		when = c.clock().Format(displayLayout)
	} else {
		when = formatTime(when)
	}
	color.New(color.FgGreen).Fprintf(c.out, "  %s %s at %s\n", args[0], strings.ToLower(string(movement)), when)
	return nil
}

func (c *cli) cmdLog(ctx context.Context, args []string) error {
	if _, err := c.gate(ctx, session.ViewGuard); err != nil {
		return err
	}
	limit, err := parseLimit(args)
	if err != nil {
		return err
	}
	res := c.client.Gateway().GetGuardLog(ctx, limit)
	if !res.Success {
		return res.Err()
	}
	renderGuardLog(c.out, res.Data.Logs)
	return nil
}

func statusOrPending(s rpc.PassStatus) rpc.PassStatus {
	if s == "" {
		return rpc.StatusPending
	}
	return s
}

type requestArgs struct {
	reason string
	from   time.Time
	to     time.Time
}

// parseRequestArgs reads --reason, --from and --to. Values may be given as
// "--flag value" or "--flag=value".
func parseRequestArgs(args []string, now time.Time) (requestArgs, error) {
	var out requestArgs
	var from, to string
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		if !hasValue {
			if i+1 >= len(args) {
				return out, fmt.Errorf("%w: %s needs a value", errUsage, name)
			}
			value = args[i+1]
			i++
		}
		switch name {
		case "--reason", "-r":
			out.reason = value
		case "--from", "-f":
			from = value
		case "--to", "-t":
			to = value
		default:
			return out, fmt.Errorf("%w: unknown flag %s", errUsage, name)
		}
	}
	if strings.TrimSpace(out.reason) == "" {
		return out, fmt.Errorf("%w: --reason is required", errUsage)
	}

	var err error
	if out.from, err = parseWhen(from, now.Location()); err != nil {
		return out, fmt.Errorf("%w: --from: %v", errUsage, err)
	}
	if out.to, err = parseWhen(to, now.Location()); err != nil {
		return out, fmt.Errorf("%w: --to: %v", errUsage, err)
	}
	if !out.to.After(out.from) {
		return out, fmt.Errorf("%w: --to must be after --from", errUsage)
	}
	return out, nil
}

var inputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("value is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// parseLimit reads an optional positive limit. No argument means the
// gateway default.
func parseLimit(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: limit must be a positive number", errUsage)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: expected at most one limit", errUsage)
	}
}
