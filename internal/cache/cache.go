package cache

import (
	"context"

	"dexsync/internal/model"
)

// PriceCache publishes the latest computed prices for external readers,
// keyed by venue and pair symbol.
type PriceCache interface {
	Publish(ctx context.Context, prices []model.DexPrice) error
	Get(ctx context.Context, dexID model.DexID, pair string) (model.Price, bool, error)
	Close() error
}
