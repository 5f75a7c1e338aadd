// Package main provides the entry point for the structure CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrz1836/structure/internal/cli"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// Set at build time via ldflags.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer cli.CloseLogFile()

	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", structerrors.UserMessage(err))
		if msg := structerrors.UserMessage(err); msg != err.Error() {
			_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err)
		}
		if action := structerrors.Actionable(err); action != "" {
			_, _ = fmt.Fprintf(os.Stderr, "  %s\n", action)
		}
	}
	return cli.ExitCodeForError(err)
}
