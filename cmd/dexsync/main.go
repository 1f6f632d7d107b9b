package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "dexsync",
		Short:        "DEX liquidity pool state sync engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync engine",
		RunE:  runEngine,
	}

	runCmd.Flags().String("out", "./data/pool_states.jsonl", "pool state JSONL path, empty disables")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the pool state history sink")
	runCmd.Flags().String("snapshot", "", "state snapshot path written on shutdown")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address, e.g. :9100")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and exit",
		RunE:  runOnce,
	}

	syncCmd.Flags().Bool("stale", false, "refresh only pools with stale state")
	syncCmd.Flags().String("out", "./data/pool_states.jsonl", "pool state JSONL path, empty disables")
	syncCmd.Flags().String("pg-dsn", "", "Postgres DSN for the pool state history sink")
	syncCmd.Flags().String("snapshot", "", "state snapshot path written after the cycle")
	syncCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(syncCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
