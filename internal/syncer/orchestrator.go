package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dexsync/internal/cache"
	"dexsync/internal/dex"
	"dexsync/internal/model"
	"dexsync/internal/storage"
)

// Kind selects how a sync cycle computes its target pool set.
type Kind int

const (
	// SyncInitial covers every monitored pool; its result drives the
	// startup health flag.
	SyncInitial Kind = iota
	// SyncAll covers every monitored pool.
	SyncAll
	// SyncStale covers only pools whose state has outlived the TTL.
	SyncStale
)

func (k Kind) String() string {
	switch k {
	case SyncInitial:
		return "initial"
	case SyncAll:
		return "all"
	case SyncStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Orchestrator drives sync cycles: it computes the target pool set, fans
// out chunked fetches per (network, dex) group, commits the results, and
// owns the periodic background loop. Cycles are serialized; a foreground
// call waits for the cycle in flight, the periodic loop skips its tick.
type Orchestrator struct {
	state   *StateManager
	fetcher *Fetcher
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics

	sink       storage.Sink
	priceCache cache.PriceCache

	running atomic.Bool
	healthy atomic.Bool
	cycleMu sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewOrchestrator wires the sync pipeline. Sink, price cache, and metrics
// may be nil to disable the corresponding output.
func NewOrchestrator(state *StateManager, fetcher *Fetcher, sink storage.Sink, priceCache cache.PriceCache, metrics *Metrics, logger *zap.Logger) (*Orchestrator, error) {
	if state == nil {
		return nil, fmt.Errorf("state manager is nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		state:      state,
		fetcher:    fetcher,
		cfg:        fetcher.Config(),
		logger:     logger,
		metrics:    metrics,
		sink:       sink,
		priceCache: priceCache,
	}, nil
}

// SyncPools runs one sync cycle of the given kind and returns the number
// of pools whose state was committed.
func (o *Orchestrator) SyncPools(ctx context.Context, kind Kind) (int, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()
	return o.syncLocked(ctx, kind)
}

func (o *Orchestrator) syncLocked(ctx context.Context, kind Kind) (int, error) {
	started := time.Now()

	var target []model.PoolID
	switch kind {
	case SyncStale:
		target = o.state.StalePools(time.Now())
		if len(target) == 0 {
			o.metrics.observeCycle(kind, "ok", time.Since(started), 0)
			return 0, nil
		}
	default:
		target = o.state.MonitoredPools()
	}

	groups := o.state.GroupPoolsByNetworkAndDex(target)

	total := 0
	failures := 0
	var fetched []model.PoolState
	for network, byDex := range groups {
		for dexID, pools := range byDex {
			applied, states, err := o.syncGroup(ctx, network, dexID, pools)
			total += applied
			fetched = append(fetched, states...)
			if err != nil {
				failures++
				o.metrics.observeGroupFailure(network, dexID)
				o.logger.Error("group sync failed",
					zap.String("network", network.String()),
					zap.String("dex", dexID.Name()),
					zap.Int("pools", len(pools)),
					zap.Error(err))
			}
		}
	}

	o.publish(ctx, fetched)

	result := "ok"
	if failures > 0 {
		result = "partial"
	}
	o.metrics.observeCycle(kind, result, time.Since(started), total)
	o.metrics.observePoolCounts(o.state.MonitoredCount(), len(o.state.StalePools(time.Now())))

	o.logger.Info("sync cycle complete",
		zap.String("kind", kind.String()),
		zap.Int("target", len(target)),
		zap.Int("synced", total),
		zap.Int("group_failures", failures),
		zap.Duration("elapsed", time.Since(started)))
	return total, nil
}

// syncGroup fetches one (network, dex) group in concurrent chunks and
// commits each chunk as it completes. The applied count and fetched
// states cover whatever succeeded even when an error is returned.
func (o *Orchestrator) syncGroup(ctx context.Context, network model.Network, dexID model.DexID, pools []model.PoolID) (int, []model.PoolState, error) {
	if !o.fetcher.SupportsNetwork(network) {
		return 0, nil, fmt.Errorf("no rpc client for network %s", network)
	}

	chunks := chunkPools(pools, o.cfg.BatchSize)

	var (
		mu      sync.Mutex
		total   int
		fetched []model.PoolState
		wg      sync.WaitGroup
	)

	for i, chunk := range chunks {
		if i > 0 && o.cfg.BatchDelay > 0 {
			timer := time.NewTimer(o.cfg.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				wg.Wait()
				return total, fetched, ctx.Err()
			case <-timer.C:
			}
		}

		wg.Add(1)
		go func(chunk []model.PoolID) {
			defer wg.Done()
			states := o.fetchChunk(ctx, network, dexID, chunk)
			if len(states) == 0 {
				return
			}
			applied := o.state.UpdateMultiplePools(states)
			mu.Lock()
			total += applied
			fetched = append(fetched, states...)
			mu.Unlock()
		}(chunk)
	}

	wg.Wait()
	return total, fetched, nil
}

// fetchChunk tries the batched RPC path first and falls back to per-pool
// retried fetches when the whole batch fails. Pools that still fail are
// logged and dropped from the cycle.
func (o *Orchestrator) fetchChunk(ctx context.Context, network model.Network, dexID model.DexID, pools []model.PoolID) []model.PoolState {
	states, err := o.fetcher.FetchBatch(ctx, network, dexID, pools)
	if err == nil {
		return states
	}
	o.logger.Warn("batch fetch failed, retrying pools individually",
		zap.String("network", network.String()),
		zap.String("dex", dexID.Name()),
		zap.Int("pools", len(pools)),
		zap.Error(err))

	var recovered []model.PoolState
	for _, poolID := range pools {
		state, err := o.fetcher.FetchWithRetry(ctx, poolID, dexID)
		if err != nil {
			o.logger.Error("pool sync failed",
				zap.Stringer("pool", poolID),
				zap.String("dex", dexID.Name()),
				zap.Error(err))
			continue
		}
		recovered = append(recovered, state)
	}
	return recovered
}

// publish pushes the cycle's results to the optional sink and price cache.
// Neither failure affects the registry commit that already happened.
func (o *Orchestrator) publish(ctx context.Context, fetched []model.PoolState) {
	if len(fetched) == 0 {
		return
	}
	if o.sink != nil {
		if err := o.sink.PutPoolStates(ctx, fetched); err != nil {
			o.logger.Warn("persisting pool states failed",
				zap.Int("states", len(fetched)),
				zap.Error(err))
		}
	}
	if o.priceCache != nil {
		seen := make(map[model.TokenPair]struct{})
		var prices []model.DexPrice
		for _, state := range fetched {
			pair := state.Pair()
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			prices = append(prices, o.state.AllPrices(pair)...)
		}
		if len(prices) == 0 {
			return
		}
		if err := o.priceCache.Publish(ctx, prices); err != nil {
			o.logger.Warn("publishing prices failed",
				zap.Int("prices", len(prices)),
				zap.Error(err))
		}
	}
}

// Initialize runs the first full sync. The orchestrator is healthy only
// when that pass covered every monitored pool; a partial first sync leaves
// the engine running unhealthy, with periodic sync expected to heal gaps.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	count, err := o.SyncPools(ctx, SyncInitial)
	if err != nil {
		o.healthy.Store(false)
		return err
	}

	monitored := o.state.MonitoredCount()
	o.healthy.Store(count == monitored)
	if count != monitored {
		o.logger.Warn("initial sync incomplete",
			zap.Int("synced", count),
			zap.Int("monitored", monitored))
	} else {
		o.logger.Info("initial sync complete", zap.Int("synced", count))
	}
	return nil
}

// SyncPool fetches and commits one monitored pool on demand.
func (o *Orchestrator) SyncPool(ctx context.Context, poolID model.PoolID) error {
	dexID, ok := o.state.MonitoredDexByPool(poolID)
	if !ok {
		return &dex.NotFoundError{Kind: "pool", ID: poolID.String()}
	}
	state, err := o.fetcher.FetchWithRetry(ctx, poolID, dexID)
	if err != nil {
		return err
	}
	return o.state.UpdatePool(state)
}

// StartPeriodicSync launches the background loop that refreshes stale
// pools every SyncInterval.
func (o *Orchestrator) StartPeriodicSync(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return fmt.Errorf("periodic sync already running")
	}
	o.stopCh = make(chan struct{})
	o.wg.Add(1)
	go o.periodicLoop(ctx)
	o.logger.Info("periodic sync started", zap.Duration("interval", o.cfg.SyncInterval))
	return nil
}

func (o *Orchestrator) periodicLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !o.running.Load() {
			return
		}
		if !o.cycleMu.TryLock() {
			o.logger.Debug("skipping periodic cycle, another sync in flight")
			continue
		}
		count, err := o.syncLocked(ctx, SyncStale)
		o.cycleMu.Unlock()
		if err != nil {
			o.logger.Error("periodic sync failed", zap.Error(err))
			continue
		}
		if count > 0 {
			o.logger.Debug("periodic sync applied updates", zap.Int("pools", count))
		}
		o.healthy.Store(o.state.SyncedCount() == o.state.MonitoredCount() && o.fetcher.Healthy())
	}
}

// StopPeriodicSync stops the loop and waits for it to exit. An in-flight
// cycle finishes; only the next wake-up is suppressed.
func (o *Orchestrator) StopPeriodicSync() {
	if !o.running.CompareAndSwap(true, false) {
		return
	}
	close(o.stopCh)
	o.wg.Wait()
	o.logger.Info("periodic sync stopped")
}

// Running reports whether the periodic loop is active.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Healthy reports whether the registry currently covers every monitored
// pool.
func (o *Orchestrator) Healthy() bool {
	return o.healthy.Load()
}

// Health reports sync coverage for operational checks.
func (o *Orchestrator) Health() model.HealthStatus {
	return model.HealthStatus{
		Healthy:        o.healthy.Load(),
		MonitoredPools: o.state.MonitoredCount(),
		SyncedPools:    o.state.SyncedCount(),
		LastSync:       o.state.LastSyncTime(),
	}
}

// chunkPools splits the pool set into batches of at most size.
func chunkPools(pools []model.PoolID, size int) [][]model.PoolID {
	if len(pools) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(pools)
	}
	chunks := make([][]model.PoolID, 0, (len(pools)+size-1)/size)
	for start := 0; start < len(pools); start += size {
		end := start + size
		if end > len(pools) {
			end = len(pools)
		}
		chunks = append(chunks, pools[start:end])
	}
	return chunks
}
