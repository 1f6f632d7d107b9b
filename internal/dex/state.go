package dex

import (
	"time"

	"github.com/shopspring/decimal"

	"dexsync/internal/model"
)

// State is the per-DEX book: which pools the DEX monitors and their latest
// synchronized state. It carries no lock of its own; Manager and the
// locking façade above it serialize access.
type State struct {
	dexID      model.DexID
	network    model.Network
	packageID  string
	pools      map[model.PoolID]model.PoolState
	monitored  map[model.PoolID]model.TokenPair
	lastUpdate time.Time
}

func NewState(dexID model.DexID, network model.Network, packageID string) *State {
	return &State{
		dexID:     dexID,
		network:   network,
		packageID: packageID,
		pools:     make(map[model.PoolID]model.PoolState),
		monitored: make(map[model.PoolID]model.TokenPair),
	}
}

func (s *State) DexID() model.DexID     { return s.dexID }
func (s *State) Network() model.Network { return s.network }
func (s *State) PackageID() string      { return s.packageID }

func (s *State) addPool(id model.PoolID, pair model.TokenPair) {
	s.monitored[id] = pair
}

func (s *State) removePool(id model.PoolID) {
	delete(s.monitored, id)
	delete(s.pools, id)
}

func (s *State) setState(state model.PoolState) {
	s.pools[state.PoolID] = state
	s.lastUpdate = time.Now()
}

// PoolState returns the latest state for one monitored pool, if any fetch
// has succeeded yet.
func (s *State) PoolState(id model.PoolID) (model.PoolState, bool) {
	state, ok := s.pools[id]
	return state, ok
}

// PoolStates returns the synchronized states in no particular order.
func (s *State) PoolStates() []model.PoolState {
	states := make([]model.PoolState, 0, len(s.pools))
	for _, state := range s.pools {
		states = append(states, state)
	}
	return states
}

// MonitoredPools returns the registered pool ids in no particular order.
func (s *State) MonitoredPools() []model.PoolID {
	ids := make([]model.PoolID, 0, len(s.monitored))
	for id := range s.monitored {
		ids = append(ids, id)
	}
	return ids
}

// MonitoredCount returns the number of registered pools.
func (s *State) MonitoredCount() int {
	return len(s.monitored)
}

// PoolPair returns the token pair a pool was registered with.
func (s *State) PoolPair(id model.PoolID) (model.TokenPair, bool) {
	pair, ok := s.monitored[id]
	return pair, ok
}

// StalePools returns the monitored pools whose state is older than ttl.
// A pool that has never been synchronized counts as stale.
func (s *State) StalePools(now time.Time, ttl time.Duration) []model.PoolID {
	var ids []model.PoolID
	for id := range s.monitored {
		state, ok := s.pools[id]
		if !ok || state.IsStale(now, ttl) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Price quotes the pair from the deepest pool currently holding both
// reserves. Pools whose state cannot produce a price are skipped, so the
// result is never a placeholder.
func (s *State) Price(pair model.TokenPair) (model.DexPrice, bool) {
	var best model.DexPrice
	found := false
	bestLiquidity := decimal.Zero
	for id, state := range s.pools {
		if !state.Pair().Matches(pair) {
			continue
		}
		value, err := state.SpotPrice(pair)
		if err != nil {
			continue
		}
		if found && state.Liquidity.LessThanOrEqual(bestLiquidity) {
			continue
		}
		best = model.DexPrice{
			DexID:  s.dexID,
			PoolID: id,
			Pair:   pair,
			Price: model.Price{
				Value:     value,
				Timestamp: state.BlockTimestamp,
				Source:    model.SourceCalculated,
			},
		}
		bestLiquidity = state.Liquidity
		found = true
	}
	return best, found
}

// Healthy reports whether the DEX has at least one fresh pool state.
func (s *State) Healthy(now time.Time, ttl time.Duration) bool {
	for _, state := range s.pools {
		if !state.IsStale(now, ttl) {
			return true
		}
	}
	return false
}

// LastUpdate returns the wall-clock time of the most recent state write.
func (s *State) LastUpdate() time.Time {
	return s.lastUpdate
}
