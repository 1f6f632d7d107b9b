package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource records where a price observation came from.
type PriceSource string

const (
	SourceCalculated PriceSource = "calculated"
	SourceRPCPoll    PriceSource = "rpc-poll"
	SourceEvent      PriceSource = "event"
	SourceExternal   PriceSource = "external"
)

// Price is one observed price point.
type Price struct {
	Value     decimal.Decimal `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Source    PriceSource     `json:"source"`
}

// Age reports how old the observation is relative to now.
func (p Price) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

// DexPrice ties a price to the venue and pool quoting it.
type DexPrice struct {
	DexID  DexID     `json:"dex_id"`
	PoolID PoolID    `json:"pool_id"`
	Pair   TokenPair `json:"pair"`
	Price  Price     `json:"price"`
}
