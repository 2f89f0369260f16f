package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/rewatch/internal/config"
	"github.com/hupe1980/rewatch/internal/logging"
	"github.com/hupe1980/rewatch/internal/supervisor"
)

// runSupervise wires configuration and signal handling into the supervisor
// loop and maps its result onto the process exit code.
func runSupervise(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	// Interrupt and termination signals cancel the loop; the supervisor
	// shuts the worker down and exits cleanly.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(supervisor.Options{
		Command: args,
		Config:  cfg,
		Logger:  logger,
		Out:     cmd.ErrOrStderr(),
	})

	code, err := sup.Run(sigCtx)
	if err != nil {
		return &ExitError{Code: code, Err: err}
	}

	if code != 0 {
		return &ExitError{Code: code}
	}

	return nil
}
