package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"employerexport/internal/config"
	"employerexport/internal/export"
	"employerexport/internal/logger"
	"employerexport/internal/metrics"
	"employerexport/internal/secret"
	"employerexport/internal/service"
	"employerexport/internal/storage"
)

// Exit codes.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitConfig         = 2
	ExitConnection     = 3
	ExitConnectionLost = 4
	ExitQuery          = 5
	ExitIO             = 6
	ExitCanceled       = 130 // interrupted before the run finished
)

// Execute runs the root command against the process environment and
// returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := RootCmd(os.Getenv)
	err := config.LoadDotEnv(os.Getenv(config.EnvEnvFile))
	if err == nil {
		err = root.ExecuteContext(ctx)
	}
	if err != nil {
		logger.New(logger.Config{Level: "error"}).Error("export failed", "err", err)
	}
	return ExitCode(err)
}

// ExitCode maps a run error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, config.ErrInvalid), errors.Is(err, secret.ErrNotFound):
		return ExitConfig
	case errors.Is(err, export.ErrConnection):
		return ExitConnection
	case errors.Is(err, export.ErrConnectionLost):
		return ExitConnectionLost
	case errors.Is(err, export.ErrQuery):
		return ExitQuery
	case errors.Is(err, export.ErrIO):
		return ExitIO
	case errors.Is(err, export.ErrCanceled):
		return ExitCanceled
	}
	return ExitFailure
}

// RootCmd builds the command tree. getenv supplies configuration; tests
// pass a map lookup.
func RootCmd(getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:   "employerexport",
		Short: "Export employer tables to JSON files for the static site",
		Long: `Reads the Regions, Industries and DatePosted tables and writes
regionsdata.json, industriesdata.json and dateposteddata.json.

Configuration comes from the environment (and an optional .env file).
With EXPORT_SCHEDULE or EXPORT_TRIGGER_FILE set, the process stays up
and re-exports on every tick or trigger.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, getenv)
		},
	}

	root.AddCommand(historyCmd(getenv))
	return root
}

func setup(cmd *cobra.Command, getenv func(string) string) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(getenv)
	if err != nil {
		return nil, nil, err
	}
	l := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		JSON:   cfg.LogJSON,
		Output: cmd.ErrOrStderr(),
	})
	return cfg, l, nil
}

func runExport(cmd *cobra.Command, getenv func(string) string) error {
	cfg, l, err := setup(cmd, getenv)
	if err != nil {
		return err
	}
	cliLog := l.WithPrefix("CLI")

	store, err := secret.New(cfg.SecretSource, cfg.ConnectionStringFile, getenv)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	dsn, err := store.Get(secret.ConnectionStringKey)
	if err != nil {
		return fmt.Errorf("connection string: %w", err)
	}
	cliLog.Debug("configuration loaded",
		"source", cfg.SecretSource,
		"dsn", logger.MaskDSN(string(dsn)),
		"driver", cfg.Driver,
		"output", cfg.OutputDir,
		"schema", cfg.Schema,
	)

	exporter := export.New(export.Options{
		Driver:       cfg.Driver,
		DSN:          string(dsn),
		OutputDir:    cfg.OutputDir,
		Schema:       cfg.Schema,
		OrderByID:    cfg.OrderByID,
		RegionChunks: cfg.RegionChunks,
	}, l)

	svc := service.NewExportService(exporter, cfg.Timeout, l)

	if cfg.HistoryDB != "" {
		db, err := storage.New(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer db.Close()
		svc.WithHistory(storage.NewHistoryStore(db))
	}
	if cfg.MetricsFile != "" {
		svc.WithMetrics(metrics.NewRecorder(nil), cfg.MetricsFile)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Scheduled() {
		return svc.Serve(ctx, cfg.Schedule, cfg.TriggerFile)
	}

	result, err := svc.RunOnce(ctx, "manual")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return nil
}
