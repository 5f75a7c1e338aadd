// Package cli provides the command-line interface for structure.
//
// Import rules:
//   - CAN import: every internal package; cli is the composition root
//   - MUST NOT import: nothing imports cli except cmd/structure
package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/structure/internal/config"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It MUST only be called after the root command's PersistentPreRunE has
// executed; before that it returns a zero-value logger that discards output.
// Safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// state is what PersistentPreRunE hands to subcommands.
type state struct {
	flags *GlobalFlags
	cfg   *config.Config

	// logOutput replaces the console and file log writers when set. Tests
	// use it to keep the CLI log out of the user's home directory.
	logOutput io.Writer
}

func (s *state) jsonOutput() bool {
	return s.flags.Output == OutputJSON
}

// newRootCmd creates and returns the root command for the structure CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	return newRootCmdWithState(&state{flags: flags}, info)
}

func newRootCmdWithState(st *state, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Structure - deterministic task routing with safety gates",
		Long: `Structure turns natural-language requests into typed task specs, checks
them against safety gates and runs them on deterministic compute kernels.

Features:
  • Paraphrase-stable classification into domains and subdomains
  • Gates that accept, clarify, reject or escalate before anything runs
  • Multi-step workflows with dependency ordering
  • Sessions that resume blocked tasks once questions are answered
  • An append-only audit trail with secrets redacted`,
		Version: formatVersion(info),
		// Run displays help when the root command is invoked without subcommands.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			applyBoundFlags(v, st.flags)

			if !IsValidOutputFormat(st.flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", structerrors.ErrInvalidOutputFormat, st.flags.Output, ValidOutputFormats())
			}

			var logger zerolog.Logger
			if st.logOutput != nil {
				logger = InitLoggerWithWriter(st.flags.Verbose, st.flags.Quiet, st.logOutput)
			} else {
				logger = InitLogger(st.flags.Verbose, st.flags.Quiet)
			}
			globalLoggerMu.Lock()
			globalLogger = logger
			globalLoggerMu.Unlock()

			ctx := logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			cfg, err := loadConfig(ctx, st.flags.Config)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		// main prints errors with their user-facing message and suggested
		// action, so cobra prints neither usage nor the raw error.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, st.flags)

	AddClassifyCommand(cmd, st)
	AddSubmitCommand(cmd, st)
	AddAnswerCommand(cmd, st)
	AddSessionCommand(cmd, st)
	AddKernelsCommand(cmd, st)
	AddGatesCommand(cmd, st)
	AddCheckInvarianceCommand(cmd, st)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}

// withApp builds the full app for one command and always closes it.
func withApp(ctx context.Context, st *state, fn func(*app) error) (err error) {
	a, err := newApp(ctx, st.cfg, GetLogger())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
