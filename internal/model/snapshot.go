package model

import "time"

// PriceKey identifies a price by venue and token pair.
type PriceKey struct {
	DexID DexID
	Pair  TokenPair
}

// MarshalText lets PriceKey key snapshot maps.
func (k PriceKey) MarshalText() ([]byte, error) {
	return []byte(string(k.DexID) + ":" + k.Pair.Symbol()), nil
}

func (k PriceKey) String() string {
	return string(k.DexID) + ":" + k.Pair.Symbol()
}

// StateSnapshot is an immutable point-in-time aggregation of the registry,
// handed to consumers so they never observe the registry mutating
// mid-calculation.
type StateSnapshot struct {
	Prices    map[PriceKey]Price   `json:"prices"`
	Pools     map[PoolID]PoolState `json:"pools"`
	Tokens    map[string]TokenInfo `json:"tokens"`
	Timestamp time.Time            `json:"timestamp"`
	Sequence  uint64               `json:"sequence"`
	DexCount  int                  `json:"dex_count"`
	PoolCount int                  `json:"pool_count"`
}

// SnapshotStats summarizes a snapshot.
type SnapshotStats struct {
	Timestamp  time.Time     `json:"timestamp"`
	Sequence   uint64        `json:"sequence"`
	DexCount   int           `json:"dex_count"`
	PoolCount  int           `json:"pool_count"`
	PriceCount int           `json:"price_count"`
	TokenCount int           `json:"token_count"`
	Age        time.Duration `json:"age"`
}

// Stats derives counters and age from the snapshot.
func (s StateSnapshot) Stats(now time.Time) SnapshotStats {
	return SnapshotStats{
		Timestamp:  s.Timestamp,
		Sequence:   s.Sequence,
		DexCount:   s.DexCount,
		PoolCount:  s.PoolCount,
		PriceCount: len(s.Prices),
		TokenCount: len(s.Tokens),
		Age:        now.Sub(s.Timestamp),
	}
}
