package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/config"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/host"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store"
	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/store/postgres"
)

// callLog is what the commands need from a call log backend.
// Implemented by store.Store and postgres.Store.
type callLog interface {
	host.CallLog
	ReadEntry(ctx context.Context, txID string) (ir.LogEntry, error)
	Stats(ctx context.Context) (store.Stats, error)
	Close() error
}

var (
	_ callLog = (*store.Store)(nil)
	_ callLog = (*postgres.Store)(nil)
)

// loadConfig resolves the config file and flag overrides. An explicit
// --config must exist; the default path may be absent when --owner is set.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Resolve(opts.ConfigPath, required, config.Overrides{
		Owner: opts.Owner,
		DSN:   opts.Database,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// setupLogging installs the process logger. --verbose forces debug.
func setupLogging(opts *RootOptions, cfg *config.Config, cmd *cobra.Command) *slog.Logger {
	lc := cfg.Log
	if opts.Verbose {
		lc.Level = "debug"
	}
	logger := config.NewLogger(lc, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return logger
}

// openLog connects to the configured backend.
func openLog(ctx context.Context, cfg *config.Config) (callLog, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pg, err := postgres.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to connect to postgres", err)
		}
		return pg, nil
	default:
		st, err := store.Open(cfg.Database.DSN)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return st, nil
	}
}

// ledger is an open call log with a recovered host on top.
type ledger struct {
	cfg    *config.Config
	log    callLog
	host   *host.Host
	logger *slog.Logger
}

func (l *ledger) Close() {
	if err := l.log.Close(); err != nil {
		l.logger.Error("error closing call log", "error", err)
	}
}

// openLedger loads config, opens the call log and recovers the host.
// extra options are applied after the configured ones.
func openLedger(ctx context.Context, opts *RootOptions, cmd *cobra.Command, extra ...host.Option) (*ledger, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}
	logger := setupLogging(opts, cfg, cmd)

	log, err := openLog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hostOpts := append([]host.Option{
		host.WithAutoMine(cfg.Host.AutoMine),
		host.WithLogger(logger),
	}, extra...)
	h, err := host.Open(ctx, log, ir.Principal(cfg.Owner), hostOpts...)
	if err != nil {
		log.Close()
		code := ExitCommandError
		if errors.Is(err, host.ErrNonDeterministic) || errors.Is(err, host.ErrCorruptLog) {
			code = ExitFailure
		}
		return nil, WrapExitError(code, "failed to recover call log", err)
	}

	return &ledger{cfg: cfg, log: log, host: h, logger: logger}, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
