package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/config"
	"github.com/estoreapp/estore-cli/internal/logging"
)

// setupLogging configures logging based on config file, environment, and
// CLI flags, and attaches the logger plus a per-invocation trace ID to
// the command context.
func setupLogging(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	loggingCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	base, fileErr := logging.NewLogger(loggingCfg)
	if fileErr != nil {
		cmd.PrintErrf("Warning: could not open log file, logging to console only: %v\n", fileErr)
	}
	logger = logging.ComponentLogger(base, "cli")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = base.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().
		Str("command", cmd.Name()).
		Str("trace_id", traceID).
		Msg("command started")

	return nil
}
