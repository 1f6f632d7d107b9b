package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// feeRateShift scales a protocol's raw integer fee rate to a fraction
// (a raw rate of 2500 means 0.25%).
const feeRateShift = 6

// PoolState is the unit of synchronized truth for one pool. Reserves,
// liquidity, and fee rate stay in arbitrary-precision decimals end to end.
type PoolState struct {
	DexID          DexID           `json:"dex_id"`
	PoolID         PoolID          `json:"pool_id"`
	TokenA         TokenInfo       `json:"token_a"`
	TokenB         TokenInfo       `json:"token_b"`
	ReserveA       decimal.Decimal `json:"reserve_a"`
	ReserveB       decimal.Decimal `json:"reserve_b"`
	Liquidity      decimal.Decimal `json:"liquidity"`
	FeeRate        decimal.Decimal `json:"fee_rate"`
	BlockTimestamp time.Time       `json:"block_timestamp"`
}

// Validate enforces the non-negativity invariant.
func (s PoolState) Validate() error {
	if s.PoolID.IsZero() {
		return fmt.Errorf("pool state missing pool id")
	}
	if s.ReserveA.IsNegative() || s.ReserveB.IsNegative() {
		return fmt.Errorf("pool %s has negative reserves", s.PoolID)
	}
	if s.Liquidity.IsNegative() {
		return fmt.Errorf("pool %s has negative liquidity", s.PoolID)
	}
	if s.FeeRate.IsNegative() {
		return fmt.Errorf("pool %s has negative fee rate", s.PoolID)
	}
	return nil
}

// Pair returns the pool's token pair in pool order.
func (s PoolState) Pair() TokenPair {
	return TokenPair{Base: s.TokenA, Quote: s.TokenB}
}

// SpotPriceAB prices one unit of token A in token B, adjusted for decimals.
// A pool with either side empty has no market and cannot quote.
func (s PoolState) SpotPriceAB() (decimal.Decimal, error) {
	reserveA := s.TokenA.ToDecimal(s.ReserveA)
	reserveB := s.TokenB.ToDecimal(s.ReserveB)
	if reserveA.IsZero() || reserveB.IsZero() {
		return decimal.Zero, fmt.Errorf("pool %s has an empty reserve", s.PoolID)
	}
	return reserveB.Div(reserveA), nil
}

// SpotPriceBA prices one unit of token B in token A, adjusted for decimals.
func (s PoolState) SpotPriceBA() (decimal.Decimal, error) {
	reserveA := s.TokenA.ToDecimal(s.ReserveA)
	reserveB := s.TokenB.ToDecimal(s.ReserveB)
	if reserveA.IsZero() || reserveB.IsZero() {
		return decimal.Zero, fmt.Errorf("pool %s has an empty reserve", s.PoolID)
	}
	return reserveA.Div(reserveB), nil
}

// SpotPrice prices pair.Base in pair.Quote, whichever pool side that maps to.
func (s PoolState) SpotPrice(pair TokenPair) (decimal.Decimal, error) {
	if !s.Pair().Matches(pair) {
		return decimal.Zero, fmt.Errorf("pool %s does not trade %s", s.PoolID, pair.Symbol())
	}
	if s.TokenA.Same(pair.Base) {
		return s.SpotPriceAB()
	}
	return s.SpotPriceBA()
}

// FeeFraction converts the raw integer fee rate to a fraction of one.
func (s PoolState) FeeFraction() decimal.Decimal {
	return s.FeeRate.Shift(-feeRateShift)
}

// IsStale reports whether the recorded chain timestamp has outlived ttl.
func (s PoolState) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.BlockTimestamp) > ttl
}
