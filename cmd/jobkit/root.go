package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/jobkit/pkg/config"
	"github.com/dmitrymomot/jobkit/pkg/engine"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// app carries the state shared by every command
type app struct {
	configPath string
	cfg        engine.Config
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "jobkit",
		Short: "Background job engine with a cron scheduler",
		Long: `jobkit runs background jobs in one of three dispatch modes and schedules
recurring tasks and shell commands from a YAML configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("JOBKIT_CONFIG"),
		"path to the YAML configuration file (env JOBKIT_CONFIG)")

	root.AddCommand(
		runSchedulerCmd(a),
		startCmd(a),
		enqueueCmd(a),
		requeueCmd(a),
		statusCmd(a),
		migrateCmd(a),
	)

	return root
}

// init builds the logger from LOG_LEVEL/LOG_FORMAT and loads the configuration
func (a *app) init() error {
	var lc logger.Config
	if err := config.Load(&lc); err != nil {
		return err
	}
	opt, err := logger.WithConfig(lc)
	if err != nil {
		return err
	}
	a.log = logger.New(opt,
		logger.WithAttr(slog.String("service", "jobkit")),
		logger.WithContextExtractors(logger.JobExtractor))
	logger.SetAsDefault(a.log)

	a.cfg, err = engine.LoadConfig(a.configPath)
	return err
}

// openEngine builds the engine with the built-in handlers
func (a *app) openEngine(ctx context.Context) (*engine.Engine, error) {
	return engine.New(ctx, a.cfg, builtinRegistry(a.log), engine.WithLogger(a.log))
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
