package syncer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"dexsync/internal/dex"
	"dexsync/internal/model"
)

// StateManager is the locking façade over the registry. All mutation goes
// through the write lock, read-only queries share the read lock, and
// nothing holds the lock across an RPC call. It adds the grouping helper
// the orchestrator needs before dispatching fetches.
type StateManager struct {
	mu      sync.RWMutex
	manager *dex.Manager
	logger  *zap.Logger
}

func NewStateManager(manager *dex.Manager, logger *zap.Logger) *StateManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateManager{manager: manager, logger: logger}
}

func (s *StateManager) RegisterDex(dexID model.DexID, network model.Network, packageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.RegisterDex(dexID, network, packageID)
}

func (s *StateManager) RegisterPool(dexID model.DexID, poolID model.PoolID, pair model.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.RegisterPool(dexID, poolID, pair)
}

// UpdatePool commits one state. The sync pipeline and an external event
// consumer may both call it; the write lock keeps the registry consistent.
func (s *StateManager) UpdatePool(state model.PoolState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.UpdatePoolState(state)
}

// UpdateMultiplePools commits a batch under one write lock and returns the
// number of states applied. Per-state failures are logged and skipped.
func (s *StateManager) UpdateMultiplePools(states []model.PoolState) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, state := range states {
		if err := s.manager.UpdatePoolState(state); err != nil {
			s.logger.Warn("dropping pool state update",
				zap.Stringer("pool", state.PoolID),
				zap.Error(err))
			continue
		}
		applied++
	}
	return applied
}

func (s *StateManager) MonitoredPools() []model.PoolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.MonitoredPools()
}

func (s *StateManager) MonitoredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.MonitoredCount()
}

func (s *StateManager) SyncedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.SyncedCount()
}

func (s *StateManager) MonitoredDexByPool(poolID model.PoolID) (model.DexID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.MonitoredDexByPool(poolID)
}

func (s *StateManager) PoolState(poolID model.PoolID) (model.PoolState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.PoolState(poolID)
}

func (s *StateManager) StalePools(now time.Time) []model.PoolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.StalePools(now)
}

func (s *StateManager) LastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.LastSyncTime()
}

func (s *StateManager) AllPrices(pair model.TokenPair) []model.DexPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.AllPrices(pair)
}

func (s *StateManager) HealthyDexes(now time.Time) map[model.Network][]model.DexID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.HealthyDexes(now)
}

func (s *StateManager) Snapshot() model.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager.Snapshot()
}

// GroupPoolsByNetworkAndDex resolves each pool's owning DEX and buckets
// the set for per-group dispatch. Pools absent from the index are logged
// and skipped.
func (s *StateManager) GroupPoolsByNetworkAndDex(poolIDs []model.PoolID) map[model.Network]map[model.DexID][]model.PoolID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[model.Network]map[model.DexID][]model.PoolID)
	for _, poolID := range poolIDs {
		dexID, ok := s.manager.MonitoredDexByPool(poolID)
		if !ok {
			s.logger.Warn("skipping unmonitored pool", zap.Stringer("pool", poolID))
			continue
		}
		network := poolID.Network()
		byDex, ok := groups[network]
		if !ok {
			byDex = make(map[model.DexID][]model.PoolID)
			groups[network] = byDex
		}
		byDex[dexID] = append(byDex[dexID], poolID)
	}
	return groups
}
