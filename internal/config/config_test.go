package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log-level: debug
pg-dsn: postgres://localhost:5432/dexsync
metrics-addr: ":9100"
snapshot: ./data/snapshot.json
sync:
  batch-size: 5
  interval: 30s
redis:
  addr: localhost:6379
  ttl: 45s
rpc:
  sui-mainnet:
    endpoint: https://fullnode.mainnet.sui.io
    page-size: 25
    page-delay: 200ms
dexes:
  - id: Cetus
    network: sui-mainnet
    package-id: "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb"
    pools:
      - address: "0x7d44018f10fea0f7ea7b7bb9e1718cf0e6b6ce24f10da8965db2bcf0ff890764"
        base:
          symbol: USDC
          decimals: 6
        quote:
          symbol: HASUI
          decimals: 9
  - id: Turbos
    network: sui-mainnet
    package-id: "0x91bfbc386a41afcfd9b2533058d7e915a1d3829089cc268ff4333d54d6339ca1"
    disabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost:5432/dexsync", cfg.PostgresDSN)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "./data/snapshot.json", cfg.Snapshot)

	assert.Equal(t, 5, cfg.Sync.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, 100, cfg.Sync.MaxPoolsPerDex)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 45*time.Second, cfg.Redis.TTL)

	require.Contains(t, cfg.RPC, "sui-mainnet")
	assert.Equal(t, "https://fullnode.mainnet.sui.io", cfg.RPC["sui-mainnet"].Endpoint)
	assert.Equal(t, 25, cfg.RPC["sui-mainnet"].PageSize)
	assert.Equal(t, 200*time.Millisecond, cfg.RPC["sui-mainnet"].PageDelay)

	require.Len(t, cfg.Dexes, 2)
	cetus := cfg.Dexes[0]
	assert.Equal(t, "Cetus", cetus.ID)
	assert.Equal(t, "sui-mainnet", cetus.Network)
	assert.False(t, cetus.Disabled)
	require.Len(t, cetus.Pools, 1)
	assert.Equal(t, "USDC", cetus.Pools[0].Base.Symbol)
	assert.Equal(t, uint8(6), cetus.Pools[0].Base.Decimals)
	assert.True(t, cfg.Dexes[1].Disabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Sync.MaxPoolsPerDex)
	assert.Equal(t, 60*time.Second, cfg.Sync.StateTTL)
	assert.Equal(t, 20, cfg.Sync.BatchSize)
	assert.Equal(t, 3, cfg.Sync.MaxRetries)
	assert.Equal(t, time.Second, cfg.Sync.RetryDelay)
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 50*time.Millisecond, cfg.Sync.BatchDelay)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "./data/pool_states.jsonl", cfg.Out)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DEXSYNC_LOG_LEVEL", "warn")
	t.Setenv("DEXSYNC_SYNC_BATCH_SIZE", "7")
	t.Setenv("DEXSYNC_REDIS_ADDR", "redis:6379")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Sync.BatchSize)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadFlagOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Set("log-level", "error"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		RPC: map[string]RPCConfig{
			"sui-mainnet": {Endpoint: "https://fullnode.mainnet.sui.io"},
		},
		Dexes: []DexConfig{
			{
				ID:        "Cetus",
				Network:   "sui-mainnet",
				PackageID: "0x1eab",
				Pools:     []PoolConfig{{Address: "0x7d44"}},
			},
		},
		Sync: SyncConfig{MaxPoolsPerDex: 100, BatchSize: 20, MaxRetries: 3},
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "NoRPC",
			mutate: func(c *Config) { c.RPC = nil },
			field:  "rpc",
		},
		{
			name:   "EmptyEndpoint",
			mutate: func(c *Config) { c.RPC["sui-mainnet"] = RPCConfig{} },
			field:  "rpc.sui-mainnet.endpoint",
		},
		{
			name:   "NoDexes",
			mutate: func(c *Config) { c.Dexes = nil },
			field:  "dexes",
		},
		{
			name:   "MissingDexID",
			mutate: func(c *Config) { c.Dexes[0].ID = "" },
			field:  "dexes[0].id",
		},
		{
			name: "DuplicateDexID",
			mutate: func(c *Config) {
				c.Dexes = append(c.Dexes, c.Dexes[0])
			},
			field: "dexes[1].id",
		},
		{
			name:   "MissingNetwork",
			mutate: func(c *Config) { c.Dexes[0].Network = "" },
			field:  "dexes[0].network",
		},
		{
			name:   "NetworkWithoutEndpoint",
			mutate: func(c *Config) { c.Dexes[0].Network = "sui-testnet" },
			field:  "dexes[0].network",
		},
		{
			name:   "PoolWithoutAddress",
			mutate: func(c *Config) { c.Dexes[0].Pools[0].Address = "" },
			field:  "dexes[0].pools[0].address",
		},
		{
			name:   "ZeroBatchSize",
			mutate: func(c *Config) { c.Sync.BatchSize = 0 },
			field:  "sync.batch-size",
		},
		{
			name:   "ZeroMaxRetries",
			mutate: func(c *Config) { c.Sync.MaxRetries = 0 },
			field:  "sync.max-retries",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateDisabledDexSkipsEndpointCheck(t *testing.T) {
	cfg := validConfig()
	cfg.Dexes[0].Network = "sui-testnet"
	cfg.Dexes[0].Disabled = true
	assert.NoError(t, cfg.Validate())
}
