package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

const displayLayout = "Jan 02 15:04"

var viewTitles = map[session.View]string{
	session.ViewLogin:   "Login",
	session.ViewRequest: "Request Exit Pass",
	session.ViewApprove: "Approver Panel",
	session.ViewGuard:   "Gate Log",
}

var viewCommands = map[session.View][]string{
	session.ViewLogin:   {"login <user_id>"},
	session.ViewRequest: {"request --reason --from --to", "passes", "logout"},
	session.ViewApprove: {"pending", "history [limit]", "approve <pass_id>", "reject <pass_id>", "stats", "logout"},
	session.ViewGuard:   {"verify <pass_id>", "exit <pass_id>", "return <pass_id>", "log [limit]", "logout"},
}

// terminalNavigator prints the view the client switched to and the commands
// available there.
type terminalNavigator struct {
	out io.Writer
}

func newTerminalNavigator(out io.Writer) *terminalNavigator {
	return &terminalNavigator{out: out}
}

func (n *terminalNavigator) GoTo(view session.View) {
	title, ok := viewTitles[view]
	if !ok {
		title = string(view)
	}
	color.New(color.FgCyan).Fprintf(n.out, "\n  -> %s\n", title)
	if cmds := viewCommands[view]; len(cmds) > 0 {
		gray := color.New(color.FgHiBlack)
		gray.Fprintf(n.out, "     %s\n", strings.Join(cmds, " | "))
	}
	fmt.Fprintln(n.out)
}

func renderSession(w io.Writer, s session.Session, home session.View) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "  Session")
	cyan.Fprintln(w, "  -------")
	fmt.Fprintf(w, "  User ID:     %s\n", s.UserID)
	fmt.Fprintf(w, "  Name:        %s\n", s.DisplayName())
	if s.Department != "" {
		fmt.Fprintf(w, "  Department:  %s\n", s.Department)
	}
	if s.Email != "" {
		fmt.Fprintf(w, "  Email:       %s\n", s.Email)
	}
	green.Fprintf(w, "  Role:        %s\n", s.Role)
	fmt.Fprintf(w, "  Signed in:   %s\n", s.LoginTime().Format(displayLayout))
	fmt.Fprintf(w, "  Home view:   %s\n", viewTitles[home])
	fmt.Fprintln(w)
}

func statusColor(s rpc.PassStatus) *color.Color {
	switch s {
	case rpc.StatusApproved, rpc.StatusReturned:
		return color.New(color.FgGreen)
	case rpc.StatusRejected, rpc.StatusExpired, rpc.StatusNotExited:
		return color.New(color.FgRed)
	case rpc.StatusPending:
		return color.New(color.FgYellow)
	case rpc.StatusExited:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Reset)
	}
}

// formatTime renders a backend timestamp for display; unparsable values are
// shown as sent and empty ones as "-".
func formatTime(s string) string {
	if s == "" {
		return "-"
	}
	t, ok := rpc.ParseTime(s)
	if !ok {
		return s
	}
	return t.Local().Format(displayLayout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func renderPasses(w io.Writer, title string, passes []rpc.Pass, now time.Time) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w)
	cyan.Fprintf(w, "  %s\n", title)
	cyan.Fprintf(w, "  %s\n", strings.Repeat("-", len(title)))

	if len(passes) == 0 {
		fmt.Fprintln(w, "  (no passes)")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PASS\tNAME\tREASON\tFROM\tTO\tSTATUS\tWINDOW")
	for _, p := range passes {
		name := p.Name
		if name == "" {
			name = p.UserID
		}
		window := "-"
		if text, _, ok := p.TimeRemaining(now); ok && (p.Status == rpc.StatusApproved || p.Status == rpc.StatusExited) {
			window = text
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.PassID,
			truncate(name, 20),
			truncate(p.Reason, 28),
			formatTime(p.ExitFrom),
			formatTime(p.ExitTo),
			statusColor(p.Status).Sprint(p.Status.Label()),
			window,
		)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderStats(w io.Writer, s rpc.Stats) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "  Statistics")
	cyan.Fprintln(w, "  ----------")

	rows := []struct {
		label  string
		value  int
		status rpc.PassStatus
	}{
		{"Total", s.Total, ""},
		{"Today", s.Today, ""},
		{"Pending", s.Pending, rpc.StatusPending},
		{"Approved", s.Approved, rpc.StatusApproved},
		{"Rejected", s.Rejected, rpc.StatusRejected},
		{"Exited", s.Exited, rpc.StatusExited},
		{"Returned", s.Returned, rpc.StatusReturned},
		{"Expired", s.Expired, rpc.StatusExpired},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-10s %s\n", r.label+":", statusColor(r.status).Sprint(strconv.Itoa(r.value)))
	}
	fmt.Fprintln(w)
}

func renderVerify(w io.Writer, v rpc.VerifyPayload, now time.Time) {
	fmt.Fprintln(w)
	if v.Valid {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "  VALID")
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(w, "  NOT VALID")
	}
	if v.Message != "" {
		fmt.Fprintf(w, "  %s\n", v.Message)
	}
	if p := v.Pass; p != nil {
		fmt.Fprintf(w, "  Pass:        %s\n", p.PassID)
		fmt.Fprintf(w, "  Name:        %s\n", p.Name)
		if p.Department != "" {
			fmt.Fprintf(w, "  Department:  %s\n", p.Department)
		}
		fmt.Fprintf(w, "  Reason:      %s\n", p.Reason)
		fmt.Fprintf(w, "  Window:      %s to %s\n", formatTime(p.ExitFrom), formatTime(p.ExitTo))
		statusColor(p.Status).Fprintf(w, "  Status:      %s\n", p.Status.Label())
		if text, _, ok := p.TimeRemaining(now); ok {
			fmt.Fprintf(w, "  Remaining:   %s\n", text)
		}
		if p.ApproverName != "" {
			fmt.Fprintf(w, "  Approved by: %s\n", p.ApproverName)
		}
	}
	fmt.Fprintln(w)
}

func renderGuardLog(w io.Writer, logs []rpc.GuardLogEntry) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "  Gate Log")
	cyan.Fprintln(w, "  --------")

	if len(logs) == 0 {
		fmt.Fprintln(w, "  (no movements)")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TIME\tPASS\tNAME\tMOVEMENT\tGUARD")
	for _, e := range logs {
		name := e.Name
		if name == "" {
			name = e.UserID
		}
		guard := e.GuardName
		if guard == "" {
			guard = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			formatTime(e.Timestamp), e.PassID, truncate(name, 20), e.Movement, guard)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
