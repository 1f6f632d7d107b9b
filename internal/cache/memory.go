package cache

import (
	"context"
	"sync"
	"time"

	"dexsync/internal/model"
)

// MemoryCache is the in-process fallback used when Redis is unavailable.
// Entries expire after the TTL, mirroring the Redis behavior.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	ttl  time.Duration
}

type memoryEntry struct {
	price     model.Price
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MemoryCache{data: make(map[string]memoryEntry), ttl: ttl}
}

func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) Publish(ctx context.Context, prices []model.DexPrice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expiresAt := time.Now().Add(m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, price := range prices {
		m.data[priceKey(price.DexID, price.Pair.Symbol())] = memoryEntry{
			price:     price.Price,
			expiresAt: expiresAt,
		}
	}
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, dexID model.DexID, pair string) (model.Price, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Price{}, false, err
	}

	m.mu.RLock()
	entry, ok := m.data[priceKey(dexID, pair)]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return model.Price{}, false, nil
	}
	return entry.price, true, nil
}
