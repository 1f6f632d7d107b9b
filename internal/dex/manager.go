package dex

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dexsync/internal/model"
)

const (
	defaultMaxPoolsPerDex = 100
	defaultStateTTL       = 60 * time.Second
)

// Manager is the authoritative registry: which DEXs and pools are
// monitored, the current state per pool, and the pool to DEX index.
// It is not safe for concurrent use; the state façade wraps it in a
// read/write lock.
type Manager struct {
	maxPoolsPerDex int
	stateTTL       time.Duration

	dexes     map[model.DexID]*State
	poolToDex map[model.PoolID]model.DexID

	lastSyncTime time.Time
	sequence     atomic.Uint64
	logger       *zap.Logger
}

func NewManager(maxPoolsPerDex int, stateTTL time.Duration, logger *zap.Logger) *Manager {
	if maxPoolsPerDex <= 0 {
		maxPoolsPerDex = defaultMaxPoolsPerDex
	}
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		maxPoolsPerDex: maxPoolsPerDex,
		stateTTL:       stateTTL,
		dexes:          make(map[model.DexID]*State),
		poolToDex:      make(map[model.PoolID]model.DexID),
		logger:         logger,
	}
}

// StateTTL returns the staleness threshold.
func (m *Manager) StateTTL() time.Duration {
	return m.stateTTL
}

// RegisterDex adds a DEX to the registry. Registering the same id twice
// fails rather than overwrites.
func (m *Manager) RegisterDex(dexID model.DexID, network model.Network, packageID string) error {
	if _, ok := m.dexes[dexID]; ok {
		return fmt.Errorf("%w: %s", ErrDexExists, dexID)
	}
	m.dexes[dexID] = NewState(dexID, network, packageID)
	m.logger.Info("registered dex",
		zap.String("dex", dexID.Name()),
		zap.String("network", network.String()))
	return nil
}

// RegisterPool adds a pool under an already registered DEX. The monitored
// set has a hard ceiling of maxPoolsPerDex multiplied by the number of
// registered DEXs; the registration that would exceed it fails with no
// partial effect.
func (m *Manager) RegisterPool(dexID model.DexID, poolID model.PoolID, pair model.TokenPair) error {
	book, ok := m.dexes[dexID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDexNotFound, dexID)
	}
	if owner, ok := m.poolToDex[poolID]; ok {
		return fmt.Errorf("%w: %s under %s", ErrPoolExists, poolID, owner)
	}
	if len(m.poolToDex) >= m.maxPoolsPerDex*len(m.dexes) {
		return fmt.Errorf("%w: %d monitored, max %d per dex across %d dexes",
			ErrPoolLimit, len(m.poolToDex), m.maxPoolsPerDex, len(m.dexes))
	}

	book.addPool(poolID, pair)
	m.poolToDex[poolID] = dexID
	m.logger.Debug("registered pool",
		zap.Stringer("pool", poolID),
		zap.String("dex", dexID.Name()),
		zap.String("pair", pair.Symbol()))
	return nil
}

// DeregisterPool removes a pool and its state from the registry. Removing
// an unknown pool is a no-op.
func (m *Manager) DeregisterPool(poolID model.PoolID) {
	dexID, ok := m.poolToDex[poolID]
	if !ok {
		return
	}
	delete(m.poolToDex, poolID)
	if book, ok := m.dexes[dexID]; ok {
		book.removePool(poolID)
	}
}

// MonitoredPools returns every registered pool id in no particular order.
func (m *Manager) MonitoredPools() []model.PoolID {
	ids := make([]model.PoolID, 0, len(m.poolToDex))
	for id := range m.poolToDex {
		ids = append(ids, id)
	}
	return ids
}

// MonitoredCount returns the size of the monitored set.
func (m *Manager) MonitoredCount() int {
	return len(m.poolToDex)
}

// MonitoredDexByPool resolves the owning DEX for a pool.
func (m *Manager) MonitoredDexByPool(poolID model.PoolID) (model.DexID, bool) {
	dexID, ok := m.poolToDex[poolID]
	return dexID, ok
}

// Dex returns the per-DEX book.
func (m *Manager) Dex(dexID model.DexID) (*State, bool) {
	book, ok := m.dexes[dexID]
	return book, ok
}

// DexCount returns the number of registered DEXs.
func (m *Manager) DexCount() int {
	return len(m.dexes)
}

// StalePools returns the pools whose state is older than the TTL, counted
// against the chain-side block timestamp. Never synchronized pools are
// included.
func (m *Manager) StalePools(now time.Time) []model.PoolID {
	var ids []model.PoolID
	for _, book := range m.dexes {
		ids = append(ids, book.StalePools(now, m.stateTTL)...)
	}
	return ids
}

// UpdatePoolState commits one fetched state. The pool must be registered
// and the state must carry the owning DEX id.
func (m *Manager) UpdatePoolState(state model.PoolState) error {
	dexID, ok := m.poolToDex[state.PoolID]
	if !ok {
		return &NotFoundError{Kind: "pool", ID: state.PoolID.String()}
	}
	book, ok := m.dexes[dexID]
	if !ok {
		return &NotFoundError{Kind: "dex", ID: dexID.Name()}
	}
	if state.DexID != dexID {
		return fmt.Errorf("pool %s is registered under %s, got state from %s", state.PoolID, dexID, state.DexID)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("invalid state for pool %s: %w", state.PoolID, err)
	}

	book.setState(state)
	m.lastSyncTime = time.Now()
	return nil
}

// PoolState returns the latest synchronized state for a pool.
func (m *Manager) PoolState(poolID model.PoolID) (model.PoolState, bool) {
	dexID, ok := m.poolToDex[poolID]
	if !ok {
		return model.PoolState{}, false
	}
	book, ok := m.dexes[dexID]
	if !ok {
		return model.PoolState{}, false
	}
	return book.PoolState(poolID)
}

// SyncedCount returns the number of monitored pools holding a state.
func (m *Manager) SyncedCount() int {
	count := 0
	for _, book := range m.dexes {
		count += len(book.pools)
	}
	return count
}

// LastSyncTime returns the wall-clock time of the last committed update.
func (m *Manager) LastSyncTime() time.Time {
	return m.lastSyncTime
}

// AllPrices quotes a pair across every DEX able to price it right now.
// DEXs with no usable pool for the pair are left out rather than reported
// with a placeholder.
func (m *Manager) AllPrices(pair model.TokenPair) []model.DexPrice {
	var prices []model.DexPrice
	for _, book := range m.dexes {
		if price, ok := book.Price(pair); ok {
			prices = append(prices, price)
		}
	}
	return prices
}

// HealthyDexes groups the DEXs with at least one fresh pool state by
// network.
func (m *Manager) HealthyDexes(now time.Time) map[model.Network][]model.DexID {
	healthy := make(map[model.Network][]model.DexID)
	for dexID, book := range m.dexes {
		if book.Healthy(now, m.stateTTL) {
			healthy[book.network] = append(healthy[book.network], dexID)
		}
	}
	return healthy
}

// Snapshot builds an immutable point-in-time aggregation of the registry.
// Each call increments the snapshot sequence.
func (m *Manager) Snapshot() model.StateSnapshot {
	snapshot := model.StateSnapshot{
		Prices:    make(map[model.PriceKey]model.Price),
		Pools:     make(map[model.PoolID]model.PoolState),
		Tokens:    make(map[string]model.TokenInfo),
		Timestamp: time.Now().UTC(),
		Sequence:  m.sequence.Add(1),
		DexCount:  len(m.dexes),
		PoolCount: len(m.poolToDex),
	}

	for dexID, book := range m.dexes {
		seen := make(map[model.TokenPair]struct{})
		for _, state := range book.pools {
			snapshot.Pools[state.PoolID] = state
			addToken(snapshot.Tokens, state.TokenA)
			addToken(snapshot.Tokens, state.TokenB)

			pair := state.Pair()
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			if price, ok := book.Price(pair); ok {
				snapshot.Prices[model.PriceKey{DexID: dexID, Pair: pair}] = price.Price
			}
		}
	}
	return snapshot
}

func addToken(tokens map[string]model.TokenInfo, token model.TokenInfo) {
	key := token.Address
	if key == "" {
		key = token.Symbol
	}
	if key == "" {
		return
	}
	tokens[key] = token
}
