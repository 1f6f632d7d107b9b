package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TokenConfig declares one side of a monitored pool's pair.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
}

// PoolConfig declares one monitored pool.
type PoolConfig struct {
	Address string      `mapstructure:"address"`
	Base    TokenConfig `mapstructure:"base"`
	Quote   TokenConfig `mapstructure:"quote"`
}

// DexConfig declares one DEX and the pools to monitor on it.
type DexConfig struct {
	ID        string       `mapstructure:"id"`
	Network   string       `mapstructure:"network"`
	PackageID string       `mapstructure:"package-id"`
	Disabled  bool         `mapstructure:"disabled"`
	Pools     []PoolConfig `mapstructure:"pools"`
}

// RPCConfig declares the JSON-RPC endpoint for one network.
type RPCConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	PageSize  int           `mapstructure:"page-size"`
	PageDelay time.Duration `mapstructure:"page-delay"`
}

// SyncConfig tunes the fetch pipeline.
type SyncConfig struct {
	MaxPoolsPerDex int
	StateTTL       time.Duration
	BatchSize      int
	MaxRetries     int
	RetryDelay     time.Duration
	Interval       time.Duration
	BatchDelay     time.Duration
}

// RedisConfig configures the published-price cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Dexes       []DexConfig
	RPC         map[string]RPCConfig
	Sync        SyncConfig
	Redis       RedisConfig
	PostgresDSN string
	Out         string
	Snapshot    string
	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sync.max-pools-per-dex", 100)
	v.SetDefault("sync.state-ttl", 60*time.Second)
	v.SetDefault("sync.batch-size", 20)
	v.SetDefault("sync.max-retries", 3)
	v.SetDefault("sync.retry-delay", time.Second)
	v.SetDefault("sync.interval", 60*time.Second)
	v.SetDefault("sync.batch-delay", 50*time.Millisecond)
	v.SetDefault("redis.ttl", time.Minute)
	v.SetDefault("out", "./data/pool_states.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Sync: SyncConfig{
			MaxPoolsPerDex: v.GetInt("sync.max-pools-per-dex"),
			StateTTL:       v.GetDuration("sync.state-ttl"),
			BatchSize:      v.GetInt("sync.batch-size"),
			MaxRetries:     v.GetInt("sync.max-retries"),
			RetryDelay:     v.GetDuration("sync.retry-delay"),
			Interval:       v.GetDuration("sync.interval"),
			BatchDelay:     v.GetDuration("sync.batch-delay"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		PostgresDSN: v.GetString("pg-dsn"),
		Out:         v.GetString("out"),
		Snapshot:    v.GetString("snapshot"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}

	if err := v.UnmarshalKey("dexes", &cfg.Dexes); err != nil {
		return Config{}, fmt.Errorf("parse dexes: %w", err)
	}
	if err := v.UnmarshalKey("rpc", &cfg.RPC); err != nil {
		return Config{}, fmt.Errorf("parse rpc endpoints: %w", err)
	}

	return cfg, nil
}

// ValidationError reports a configuration value the engine cannot start
// with.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Validate checks the loaded configuration before anything is dialed or
// registered. Identity parsing (DEX ids, networks, pool addresses) is the
// registration step's job; this pass is structural.
func (c Config) Validate() error {
	if len(c.RPC) == 0 {
		return &ValidationError{Field: "rpc", Reason: "at least one endpoint is required"}
	}
	for network, rpc := range c.RPC {
		if rpc.Endpoint == "" {
			return &ValidationError{Field: "rpc." + network + ".endpoint", Reason: "endpoint is required"}
		}
	}

	if len(c.Dexes) == 0 {
		return &ValidationError{Field: "dexes", Reason: "at least one dex is required"}
	}
	seen := make(map[string]struct{}, len(c.Dexes))
	for i, dex := range c.Dexes {
		field := fmt.Sprintf("dexes[%d]", i)
		if dex.ID == "" {
			return &ValidationError{Field: field + ".id", Reason: "id is required"}
		}
		if _, ok := seen[dex.ID]; ok {
			return &ValidationError{Field: field + ".id", Reason: "duplicate dex " + dex.ID}
		}
		seen[dex.ID] = struct{}{}
		if dex.Network == "" {
			return &ValidationError{Field: field + ".network", Reason: "network is required"}
		}
		if dex.Disabled {
			continue
		}
		if _, ok := c.RPC[dex.Network]; !ok {
			return &ValidationError{Field: field + ".network", Reason: "no rpc endpoint configured for " + dex.Network}
		}
		for j, pool := range dex.Pools {
			if pool.Address == "" {
				return &ValidationError{Field: fmt.Sprintf("%s.pools[%d].address", field, j), Reason: "address is required"}
			}
		}
	}

	if c.Sync.MaxPoolsPerDex < 1 {
		return &ValidationError{Field: "sync.max-pools-per-dex", Reason: "must be at least 1"}
	}
	if c.Sync.BatchSize < 1 {
		return &ValidationError{Field: "sync.batch-size", Reason: "must be at least 1"}
	}
	if c.Sync.MaxRetries < 1 {
		return &ValidationError{Field: "sync.max-retries", Reason: "must be at least 1"}
	}
	return nil
}
