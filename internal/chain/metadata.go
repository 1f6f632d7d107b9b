package chain

import (
	"context"
	"fmt"
	"sync"
)

// CoinMetadata is the suix_getCoinMetadata payload, trimmed to the fields
// the engine uses.
type CoinMetadata struct {
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

// CoinMetaCache caches coin metadata by coin type. Metadata is immutable
// on chain, so entries never expire.
type CoinMetaCache struct {
	mu   sync.RWMutex
	data map[string]CoinMetadata
}

func NewCoinMetaCache() *CoinMetaCache {
	return &CoinMetaCache{data: make(map[string]CoinMetadata)}
}

func (c *CoinMetaCache) Get(coinType string) (CoinMetadata, bool) {
	c.mu.RLock()
	meta, ok := c.data[coinType]
	c.mu.RUnlock()
	return meta, ok
}

func (c *CoinMetaCache) Set(coinType string, meta CoinMetadata) {
	c.mu.Lock()
	c.data[coinType] = meta
	c.mu.Unlock()
}

// CoinMetadata fetches on-chain metadata for one coin type. A coin whose
// publisher never registered metadata yields an error, not a zero value.
func (c *Client) CoinMetadata(ctx context.Context, coinType string) (CoinMetadata, error) {
	var meta *CoinMetadata
	if err := c.rpcClient.CallContext(ctx, &meta, "suix_getCoinMetadata", coinType); err != nil {
		c.healthy.Store(false)
		return CoinMetadata{}, fmt.Errorf("coin metadata %s: %w", coinType, err)
	}
	c.healthy.Store(true)

	if meta == nil {
		return CoinMetadata{}, fmt.Errorf("no metadata published for coin %s", coinType)
	}
	return *meta, nil
}

// FetchCoinMeta loads coin metadata through the cache.
func FetchCoinMeta(ctx context.Context, client *Client, cache *CoinMetaCache, coinType string) (CoinMetadata, error) {
	if client == nil {
		return CoinMetadata{}, fmt.Errorf("chain client is nil")
	}
	if cache != nil {
		if meta, ok := cache.Get(coinType); ok {
			return meta, nil
		}
	}
	meta, err := client.CoinMetadata(ctx, coinType)
	if err != nil {
		return CoinMetadata{}, err
	}
	if cache != nil {
		cache.Set(coinType, meta)
	}
	return meta, nil
}
