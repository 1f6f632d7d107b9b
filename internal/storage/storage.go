package storage

import (
	"context"

	"dexsync/internal/model"
)

// Sink persists synchronized pool states.
type Sink interface {
	PutPoolStates(ctx context.Context, states []model.PoolState) error
}
