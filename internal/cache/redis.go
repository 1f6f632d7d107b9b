package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dexsync/internal/model"
)

// RedisCache stores the latest price per (dex, pair) in Redis with a TTL,
// so stale quotes age out on their own.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Close() error {
	return r.rdb.Close()
}

func priceKey(dexID model.DexID, pair string) string {
	return fmt.Sprintf("price:%s:%s", dexID, pair)
}

// Publish writes every price in one pipeline round trip.
func (r *RedisCache) Publish(ctx context.Context, prices []model.DexPrice) error {
	if len(prices) == 0 {
		return nil
	}

	pipe := r.rdb.Pipeline()
	for _, price := range prices {
		data, err := json.Marshal(price.Price)
		if err != nil {
			return fmt.Errorf("marshal price %s: %w", price.Pair.Symbol(), err)
		}
		pipe.Set(ctx, priceKey(price.DexID, price.Pair.Symbol()), data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %d prices: %w", len(prices), err)
	}
	return nil
}

// Get reads the latest published price for a venue and pair symbol.
func (r *RedisCache) Get(ctx context.Context, dexID model.DexID, pair string) (model.Price, bool, error) {
	data, err := r.rdb.Get(ctx, priceKey(dexID, pair)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Price{}, false, nil
	}
	if err != nil {
		return model.Price{}, false, err
	}

	var price model.Price
	if err := json.Unmarshal(data, &price); err != nil {
		return model.Price{}, false, fmt.Errorf("decode cached price: %w", err)
	}
	return price, true, nil
}
