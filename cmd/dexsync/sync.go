package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dexsync/internal/config"
	"dexsync/internal/syncer"
)

func runOnce(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	staleOnly, _ := cmd.Flags().GetBool("stale")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	kind := syncer.SyncAll
	if staleOnly {
		kind = syncer.SyncStale
	}

	started := time.Now()
	count, err := eng.orch.SyncPools(ctx, kind)
	if err != nil {
		return err
	}

	logger.Info("sync finished",
		zap.String("kind", kind.String()),
		zap.Int("synced", count),
		zap.Int("monitored", eng.state.MonitoredCount()),
		zap.Int("stale_remaining", len(eng.state.StalePools(time.Now()))),
		zap.Duration("elapsed", time.Since(started)),
	)

	if cfg.Snapshot != "" {
		eng.saveSnapshot(cfg.Snapshot)
	}
	return nil
}
