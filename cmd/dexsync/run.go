package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dexsync/internal/cache"
	"dexsync/internal/chain"
	"dexsync/internal/config"
	"dexsync/internal/dex"
	"dexsync/internal/model"
	"dexsync/internal/parser"
	"dexsync/internal/storage"
	"dexsync/internal/storage/postgres"
	"dexsync/internal/syncer"
)

// defaultTokenDecimals applies to configured pair tokens that do not
// declare a scale.
const defaultTokenDecimals = 9

// engine bundles everything a command needs to run sync cycles, plus the
// resources to release on the way out.
type engine struct {
	state   *syncer.StateManager
	orch    *syncer.Orchestrator
	metrics *prometheus.Registry

	clients []*chain.Client
	pg      *postgres.Store
	prices  cache.PriceCache
	logger  *zap.Logger
}

func runEngine(cmd *cobra.Command, _ []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = serveMetrics(cfg.MetricsAddr, eng.metrics, logger)
		defer shutdownMetrics(metricsSrv, logger)
	}

	logger.Info("engine start",
		zap.Int("dexes", len(cfg.Dexes)),
		zap.Int("monitored_pools", eng.state.MonitoredCount()),
		zap.Duration("sync_interval", cfg.Sync.Interval),
		zap.Duration("state_ttl", cfg.Sync.StateTTL),
		zap.String("out", cfg.Out),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	if err := eng.orch.Initialize(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	health := eng.orch.Health()
	logger.Info("initial coverage",
		zap.Bool("healthy", health.Healthy),
		zap.Int("monitored", health.MonitoredPools),
		zap.Int("synced", health.SyncedPools),
		zap.Float64("coverage", health.Coverage()),
	)

	if err := eng.orch.StartPeriodicSync(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	eng.orch.StopPeriodicSync()

	if cfg.Snapshot != "" {
		eng.saveSnapshot(cfg.Snapshot)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildEngine dials the configured transports and assembles the sync
// pipeline, leaving the registry populated from the config.
func buildEngine(ctx context.Context, cfg config.Config, logger *zap.Logger) (*engine, error) {
	eng := &engine{logger: logger}

	clients := make(map[model.Network]syncer.ObjectFetcher, len(cfg.RPC))
	chainByNet := make(map[model.Network]*chain.Client, len(cfg.RPC))
	for name, rpcCfg := range cfg.RPC {
		network, err := model.ParseNetwork(name)
		if err != nil {
			eng.close()
			return nil, err
		}
		client, err := chain.NewClient(ctx, chain.Config{
			Endpoint:  rpcCfg.Endpoint,
			PageSize:  rpcCfg.PageSize,
			PageDelay: rpcCfg.PageDelay,
		}, logger)
		if err != nil {
			eng.close()
			return nil, fmt.Errorf("connect %s rpc: %w", network, err)
		}
		eng.clients = append(eng.clients, client)
		clients[network] = client
		chainByNet[network] = client
	}

	manager := dex.NewManager(cfg.Sync.MaxPoolsPerDex, cfg.Sync.StateTTL, logger)
	eng.state = syncer.NewStateManager(manager, logger)

	fetcher, err := syncer.NewFetcher(clients, parser.DefaultRegistry(logger), syncer.Config{
		MaxPoolsPerDex: cfg.Sync.MaxPoolsPerDex,
		StateTTL:       cfg.Sync.StateTTL,
		BatchSize:      cfg.Sync.BatchSize,
		MaxRetries:     cfg.Sync.MaxRetries,
		RetryDelay:     cfg.Sync.RetryDelay,
		SyncInterval:   cfg.Sync.Interval,
		BatchDelay:     cfg.Sync.BatchDelay,
	}, logger)
	if err != nil {
		eng.close()
		return nil, err
	}

	sink, err := eng.buildSink(ctx, cfg)
	if err != nil {
		eng.close()
		return nil, err
	}
	eng.prices = buildPriceCache(ctx, cfg.Redis, logger)

	eng.metrics = prometheus.NewRegistry()
	eng.orch, err = syncer.NewOrchestrator(eng.state, fetcher, sink, eng.prices, syncer.NewMetrics(eng.metrics), logger)
	if err != nil {
		eng.close()
		return nil, err
	}

	if err := registerDexes(ctx, eng.state, cfg, chainByNet, logger); err != nil {
		eng.close()
		return nil, err
	}
	return eng, nil
}

// buildSink picks the pool state sink: Postgres when a DSN is configured,
// the JSONL file otherwise, nothing when both are off.
func (e *engine) buildSink(ctx context.Context, cfg config.Config) (storage.Sink, error) {
	if cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		e.pg = store
		return store, nil
	}
	if cfg.Out != "" {
		return storage.NewJsonlSink(cfg.Out), nil
	}
	return nil, nil
}

// buildPriceCache prefers Redis and falls back to the in-process cache when
// the server is unreachable, so price publication never blocks startup.
func buildPriceCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) cache.PriceCache {
	if cfg.Addr == "" {
		return cache.NewMemoryCache(cfg.TTL)
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory price cache",
			zap.String("addr", cfg.Addr),
			zap.Error(err))
		return cache.NewMemoryCache(cfg.TTL)
	}
	logger.Info("price cache connected", zap.String("addr", cfg.Addr))
	return redisCache
}

// registerDexes loads the configured DEXs and pools into the registry,
// resolving token scale from on-chain coin metadata where the config leaves
// it out.
func registerDexes(ctx context.Context, state *syncer.StateManager, cfg config.Config, chains map[model.Network]*chain.Client, logger *zap.Logger) error {
	coinMeta := chain.NewCoinMetaCache()
	for _, dexCfg := range cfg.Dexes {
		if dexCfg.Disabled {
			logger.Info("skipping disabled dex", zap.String("dex", dexCfg.ID))
			continue
		}
		dexID, err := model.ParseDexID(dexCfg.ID)
		if err != nil {
			return err
		}
		network, err := model.ParseNetwork(dexCfg.Network)
		if err != nil {
			return err
		}
		if err := state.RegisterDex(dexID, network, dexCfg.PackageID); err != nil {
			return err
		}
		for _, poolCfg := range dexCfg.Pools {
			poolID, err := poolAddress(network, poolCfg.Address)
			if err != nil {
				return fmt.Errorf("pool %s: %w", poolCfg.Address, err)
			}
			pair := model.TokenPair{
				Base:  resolveToken(ctx, poolCfg.Base, chains[network], coinMeta, logger),
				Quote: resolveToken(ctx, poolCfg.Quote, chains[network], coinMeta, logger),
			}
			if err := state.RegisterPool(dexID, poolID, pair); err != nil {
				return err
			}
		}
	}
	return nil
}

func poolAddress(network model.Network, raw string) (model.PoolID, error) {
	switch network {
	case model.NetworkSuiMainnet, model.NetworkSuiTestnet:
		return model.NewSuiAddress(raw)
	case model.NetworkAptosMainnet:
		return model.NewAptosAddress(raw)
	default:
		return model.PoolID{}, fmt.Errorf("unsupported network %s", network)
	}
}

// resolveToken fills an incomplete token declaration from coin metadata.
// A failed lookup falls back to the default scale so registration never
// blocks on a flaky node.
func resolveToken(ctx context.Context, cfg config.TokenConfig, client *chain.Client, cache *chain.CoinMetaCache, logger *zap.Logger) model.TokenInfo {
	info := model.TokenInfo{
		Symbol:   cfg.Symbol,
		Address:  cfg.Address,
		Decimals: cfg.Decimals,
	}
	if info.Decimals == 0 && info.Address != "" && client != nil {
		meta, err := chain.FetchCoinMeta(ctx, client, cache, info.Address)
		if err != nil {
			logger.Warn("coin metadata lookup failed, using default decimals",
				zap.String("coin", info.Address),
				zap.Error(err))
		} else {
			info.Decimals = meta.Decimals
			if info.Symbol == "" {
				info.Symbol = meta.Symbol
			}
		}
	}
	if info.Decimals == 0 {
		info.Decimals = defaultTokenDecimals
	}
	return info
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}

func shutdownMetrics(srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown failed", zap.Error(err))
	}
}

func (e *engine) saveSnapshot(path string) {
	file := &storage.SnapshotFile{Path: path}
	if err := file.Save(e.state.Snapshot()); err != nil {
		e.logger.Warn("writing snapshot failed", zap.String("path", path), zap.Error(err))
		return
	}
	e.logger.Info("snapshot written", zap.String("path", path))
}

func (e *engine) close() {
	if e.prices != nil {
		if err := e.prices.Close(); err != nil {
			e.logger.Warn("closing price cache failed", zap.Error(err))
		}
	}
	if e.pg != nil {
		e.pg.Close()
	}
	for _, client := range e.clients {
		client.Close()
	}
}
