package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexsync/internal/model"
)

func testPrices() []model.DexPrice {
	pair := model.TokenPair{
		Base:  model.TokenInfo{Symbol: "SUI", Decimals: 9},
		Quote: model.TokenInfo{Symbol: "USDC", Decimals: 6},
	}
	return []model.DexPrice{
		{
			DexID: model.DexCetus,
			Pair:  pair,
			Price: model.Price{
				Value:     decimal.RequireFromString("4.05"),
				Timestamp: time.Now().UTC(),
				Source:    model.SourceCalculated,
			},
		},
		{
			DexID: model.DexTurbos,
			Pair:  pair,
			Price: model.Price{
				Value:     decimal.RequireFromString("4.10"),
				Timestamp: time.Now().UTC(),
				Source:    model.SourceCalculated,
			},
		},
	}
}

func TestMemoryCachePublishGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	require.NoError(t, c.Publish(ctx, testPrices()))

	price, ok, err := c.Get(ctx, model.DexCetus, "SUI/USDC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.05", price.Value.String())

	price, ok, err = c.Get(ctx, model.DexTurbos, "SUI/USDC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.1", price.Value.String())

	_, ok, err = c.Get(ctx, model.DexKriya, "SUI/USDC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(20 * time.Millisecond)

	require.NoError(t, c.Publish(ctx, testPrices()))

	_, ok, err := c.Get(ctx, model.DexCetus, "SUI/USDC")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok, err = c.Get(ctx, model.DexCetus, "SUI/USDC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCachePublishOverwrites(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	prices := testPrices()
	require.NoError(t, c.Publish(ctx, prices))

	prices[0].Price.Value = decimal.RequireFromString("4.20")
	require.NoError(t, c.Publish(ctx, prices[:1]))

	price, ok, err := c.Get(ctx, model.DexCetus, "SUI/USDC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.2", price.Value.String())
}
