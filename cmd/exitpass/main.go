// Command exitpass is the terminal client for the exit pass backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/MrEthical07/exitpass"
)

const banner = `
           _ _
  _____  _(_) |_ _ __   __ _ ___ ___
 / _ \ \/ / | __| '_ \ / _' / __/ __|
|  __/>  <| | |_| |_) | (_| \__ \__ \
 \___/_/\_\_|\__| .__/ \__,_|___/___/
                |_|
`

func main() {
	fs := flag.NewFlagSet("exitpass", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", os.Getenv("EXITPASS_CONFIG"), "path to a TOML config file")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before EXITPASS_* overrides")
	if err := fs.Parse(os.Args[1:]); err != nil {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	args := fs.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, args); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, envFile string, args []string) error {
	cfg, err := exitpass.LoadConfig(configPath, envFile)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	out := color.Output
	client, err := exitpass.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithNavigator(newTerminalNavigator(out)).
		BuildContext(ctx)
	if err != nil {
		return fmt.Errorf("starting client: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("closing client", "error", cerr)
		}
	}()

	c := &cli{client: client, out: out}
	return c.dispatch(ctx, args[0], args[1:])
}

// setupLogger writes diagnostics to stderr so command output stays clean.
func setupLogger(cfg exitpass.LoggingConfig) *slog.Logger {
	level, err := exitpass.ParseLogLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func printUsage(w io.Writer) {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: exitpass [--config file] [--env-file file] <command> [args]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Session:")
	fmt.Fprintln(w, "  login <user_id>                         Sign in and open your view")
	fmt.Fprintln(w, "  logout                                  Sign out")
	fmt.Fprintln(w, "  whoami                                  Show the current session")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Employee:")
	fmt.Fprintln(w, "  request --reason <text> --from <time> --to <time>")
	fmt.Fprintln(w, "                                          Request an exit pass")
	fmt.Fprintln(w, "  passes                                  List your passes")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Approver / admin:")
	fmt.Fprintln(w, "  pending                                 List passes awaiting a decision")
	fmt.Fprintln(w, "  history [limit]                         List recent passes (default 50)")
	fmt.Fprintln(w, "  approve <pass_id>                       Approve a pass")
	fmt.Fprintln(w, "  reject <pass_id>                        Reject a pass")
	fmt.Fprintln(w, "  stats                                   Show dashboard counters")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Guard / admin:")
	fmt.Fprintln(w, "  verify <pass_id>                        Check a pass at the gate")
	fmt.Fprintln(w, "  exit <pass_id>                          Log an exit")
	fmt.Fprintln(w, "  return <pass_id>                        Log a return")
	fmt.Fprintln(w, "  log [limit]                             Show the gate log (default 30)")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  EXITPASS_API_URL                        Backend endpoint (required)")
	fmt.Fprintln(w, "  EXITPASS_SESSION_TIMEOUT_MINS           Inactivity timeout, 0 disables (default 60)")
	fmt.Fprintln(w, "  EXITPASS_SESSION_BACKEND                memory, file, redis or sqlite (default file)")
	fmt.Fprintln(w, "  EXITPASS_CONFIG                         Default for --config")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Times:")
	fmt.Fprintln(w, "  --from/--to accept 2006-01-02T15:04 (local time) or RFC 3339.")
	fmt.Fprintln(w)
}
