package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dexsync/internal/model"
	"dexsync/internal/parser"
)

// ObjectFetcher is the transport contract the fetch pipeline depends on.
// The concrete client is replaceable; only single fetch, batched fetch,
// and a health flag are required.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, objectID string) (model.ObjectData, error)
	FetchObjects(ctx context.Context, objectIDs []string) ([]model.ObjectData, error)
	Healthy() bool
}

const (
	defaultMaxPoolsPerDex = 100
	defaultStateTTL       = 60 * time.Second
	defaultBatchSize      = 20
	defaultMaxRetries     = 3
	defaultRetryDelay     = time.Second
	defaultSyncInterval   = 60 * time.Second
	defaultBatchDelay     = 50 * time.Millisecond
)

// Config tunes the sync pipeline.
type Config struct {
	MaxPoolsPerDex int
	StateTTL       time.Duration
	BatchSize      int
	MaxRetries     int
	RetryDelay     time.Duration
	SyncInterval   time.Duration
	BatchDelay     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPoolsPerDex <= 0 {
		c.MaxPoolsPerDex = defaultMaxPoolsPerDex
	}
	if c.StateTTL <= 0 {
		c.StateTTL = defaultStateTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = defaultSyncInterval
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = defaultBatchDelay
	}
	return c
}

// SyncError reports retry exhaustion for one pool.
type SyncError struct {
	PoolID   model.PoolID
	DexID    model.DexID
	Attempts int
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync pool %s (%s) failed after %d attempts: %v", e.PoolID, e.DexID, e.Attempts, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Fetcher turns monitored pool ids into parsed pool states. It is
// stateless after construction and safe to share across fetch tasks.
type Fetcher struct {
	clients map[model.Network]ObjectFetcher
	parsers *parser.Registry
	cfg     Config
	logger  *zap.Logger
}

func NewFetcher(clients map[model.Network]ObjectFetcher, parsers *parser.Registry, cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one rpc client is required")
	}
	if parsers == nil {
		return nil, fmt.Errorf("parser registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		clients: clients,
		parsers: parsers,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}, nil
}

// Config returns the effective configuration after defaulting.
func (f *Fetcher) Config() Config {
	return f.cfg
}

// SupportsNetwork reports whether a transport is configured for the
// network.
func (f *Fetcher) SupportsNetwork(network model.Network) bool {
	_, ok := f.clients[network]
	return ok
}

// Healthy reports whether every configured transport is healthy.
func (f *Fetcher) Healthy() bool {
	for _, client := range f.clients {
		if !client.Healthy() {
			return false
		}
	}
	return true
}

// FetchWithRetry fetches and parses one pool, retrying transport failures
// with a fixed delay. MaxRetries bounds the total attempt count. A parse
// failure on a successful fetch is returned immediately; re-fetching
// cannot fix a malformed object.
func (f *Fetcher) FetchWithRetry(ctx context.Context, poolID model.PoolID, dexID model.DexID) (model.PoolState, error) {
	client, ok := f.clients[poolID.Network()]
	if !ok {
		return model.PoolState{}, fmt.Errorf("no rpc client for network %s", poolID.Network())
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		obj, err := client.FetchObject(ctx, poolID.Value)
		if err == nil {
			return f.parsers.Parse(obj, dexID)
		}
		lastErr = err
		f.logger.Warn("pool fetch failed",
			zap.Stringer("pool", poolID),
			zap.String("dex", dexID.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.cfg.MaxRetries),
			zap.Error(err))

		if attempt == f.cfg.MaxRetries {
			break
		}
		timer := time.NewTimer(f.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.PoolState{}, ctx.Err()
		case <-timer.C:
		}
	}
	return model.PoolState{}, &SyncError{PoolID: poolID, DexID: dexID, Attempts: f.cfg.MaxRetries, Err: lastErr}
}

// FetchBatch fetches one (network, dex) group through the batched RPC path
// and parses best-effort, so the result may be smaller than the request.
// A transport failure is surfaced to the caller with its original cause;
// composing a per-pool fallback is the orchestrator's decision, not this
// layer's.
func (f *Fetcher) FetchBatch(ctx context.Context, network model.Network, dexID model.DexID, poolIDs []model.PoolID) ([]model.PoolState, error) {
	client, ok := f.clients[network]
	if !ok {
		return nil, fmt.Errorf("no rpc client for network %s", network)
	}

	ids := make([]string, 0, len(poolIDs))
	for _, poolID := range poolIDs {
		if poolID.Network() != network {
			f.logger.Warn("skipping pool outside the batch network",
				zap.Stringer("pool", poolID),
				zap.String("network", network.String()))
			continue
		}
		ids = append(ids, poolID.Value)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	objects, err := client.FetchObjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("batch fetch %d pools on %s: %w", len(ids), network, err)
	}
	return f.parsers.ParseBatch(objects, dexID), nil
}
