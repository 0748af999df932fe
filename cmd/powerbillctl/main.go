// Command powerbillctl is an operator CLI for the billing API. The login
// credential is kept in a session file and checked locally before every
// protected call.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bissquit/powerbill/internal/client"
	"github.com/bissquit/powerbill/internal/session"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type cli struct {
	api    *client.Client
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("powerbillctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	server := fs.String("server", envOr("POWERBILL_SERVER", "http://localhost:8080"), "API base URL")
	sessionPath := fs.String("session", envOr("POWERBILL_SESSION", defaultSessionPath()), "session file path")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	sess := session.NewContext(session.NewFileStore(*sessionPath))
	c := &cli{
		api:    client.New(client.Config{BaseURL: *server, Timeout: *timeout}, sess),
		stdout: stdout,
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	if err := cmd.run(ctx, c, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: powerbillctl %s %s\n", fs.Arg(0), cmd.usage)
			return exitUsage
		}
		if client.IsUnauthorized(err) {
			fmt.Fprintf(stderr, "error: %v\nrun `powerbillctl login` to start a new session\n", err)
			return exitError
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: powerbillctl [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".powerbill-session.yaml"
	}
	return filepath.Join(dir, "powerbill", "session.yaml")
}
