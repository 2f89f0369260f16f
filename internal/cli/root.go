// Package cli implements the cobra command tree for rewatch.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rewatch/internal/config"
	"github.com/hupe1980/rewatch/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
// Fatal errors are printed to stderr; propagated worker exit codes carry
// no error and produce no output of their own.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
			}

			return exitErr.Code
		}

		fmt.Fprintln(os.Stderr, "Error:", err)

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "rewatch [flags] -- <command> [args...]",
		Short: "Run a command and restart it when source files change",
		Long: `rewatch runs a command in the foreground and watches a set of source
directories for changes. When a watched file is created, modified, or
deleted, the command is terminated and started again. When the command
exits on its own, rewatch exits with the same code.

The command inherits the terminal, so interactive and full-screen
programs work unchanged.`,
		Example: `  rewatch python demo/demo.py
  rewatch --extensions .py,.css -- python demo/demo.py --dev
  rewatch --watch-dirs src,lib --restart-on-crash ./app`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.Any("watchDirs", cfg.WatchDirs),
				slog.Any("extensions", cfg.Extensions),
				slog.String("logLevel", cfg.LogLevel),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return &ExitError{Code: 1, Err: errors.New("missing command to supervise")}
			}

			return runSupervise(cmd, args)
		},
	}

	// Everything after the first positional argument belongs to the
	// supervised command, not to rewatch.
	cmd.Flags().SetInterspersed(false)

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .rewatch.yaml)")
	pf.StringSlice("watch-dirs", []string{"src", "demo"}, "directories to watch recursively")
	pf.StringSlice("extensions", []string{".py"}, "file extensions that trigger a restart")
	pf.Duration("debounce", 500*time.Millisecond, "quiet period applied to change events")
	pf.Duration("settle-delay", 500*time.Millisecond, "pause before restarting after a change")
	pf.Duration("stop-timeout", 5*time.Second, "grace period before a stopped worker is killed")
	pf.Bool("restart-on-crash", false, "wait for changes after a nonzero exit instead of exiting")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors are usage errors.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 1, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newVersionCommand(),
		newConfigCommand(),
		newCompletionCommand(),
	)

	return cmd
}
