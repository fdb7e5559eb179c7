// Package config loads and validates the engine configuration from YAML.
// Every tunable the engine exposes lives here; nothing is a hidden magic
// number inside the domain packages.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Buu205/vnsignal/internal/app"
	"github.com/Buu205/vnsignal/internal/store/cache"
	"github.com/Buu205/vnsignal/internal/store/remote"
)

// Config is the full process configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`

	Market   app.MarketConfig   `yaml:"market"`
	Rotation app.RotationConfig `yaml:"rotation"`
	Signals  app.SignalConfig   `yaml:"signals"`
}

// LogConfig controls zerolog setup.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig controls the read-only HTTP API. Durations are seconds.
type ServerConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
	RefreshSecs      int    `yaml:"refresh_secs"`
}

func (s ServerConfig) ReadTimeout() time.Duration  { return secs(s.ReadTimeoutSecs, 10*time.Second) }
func (s ServerConfig) WriteTimeout() time.Duration { return secs(s.WriteTimeoutSecs, 10*time.Second) }
func (s ServerConfig) IdleTimeout() time.Duration  { return secs(s.IdleTimeoutSecs, 60*time.Second) }

// RefreshInterval is how often the serve loop recomputes snapshots.
func (s ServerConfig) RefreshInterval() time.Duration { return secs(s.RefreshSecs, 15*time.Minute) }

// StoreConfig selects and configures the data source.
type StoreConfig struct {
	// Backend is "postgres" or "remote".
	Backend string `yaml:"backend"`

	PostgresDSN         string `yaml:"postgres_dsn"`
	PostgresTimeoutSecs int    `yaml:"postgres_timeout_secs"`

	RemoteBaseURL     string  `yaml:"remote_base_url"`
	RemoteTimeoutSecs int     `yaml:"remote_timeout_secs"`
	RemoteRPS         float64 `yaml:"remote_rps"`
	RemoteBurst       int     `yaml:"remote_burst"`

	// Cache is optional; an empty addr disables it.
	CacheAddr     string `yaml:"cache_addr"`
	CachePassword string `yaml:"cache_password"`
	CacheDB       int    `yaml:"cache_db"`
	CacheTTLSecs  int    `yaml:"cache_ttl_secs"`
}

// PostgresTimeout returns the per-query timeout.
func (s StoreConfig) PostgresTimeout() time.Duration {
	return secs(s.PostgresTimeoutSecs, 5*time.Second)
}

// RemoteConfig builds the remote client settings.
func (s StoreConfig) RemoteConfig() remote.Config {
	return remote.Config{
		BaseURL: s.RemoteBaseURL,
		Timeout: secs(s.RemoteTimeoutSecs, 10*time.Second),
		RPS:     s.RemoteRPS,
		Burst:   s.RemoteBurst,
	}
}

// CacheConfig builds the snapshot cache settings.
func (s StoreConfig) CacheConfig() cache.Config {
	return cache.Config{
		Addr:     s.CacheAddr,
		Password: s.CachePassword,
		DB:       s.CacheDB,
		TTL:      secs(s.CacheTTLSecs, 15*time.Minute),
	}
}

func secs(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8085,
		},
		Store: StoreConfig{
			Backend: "postgres",
		},
		Market:   app.DefaultMarketConfig(),
		Rotation: app.DefaultRotationConfig(),
		Signals:  app.DefaultSignalConfig(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants a misconfigured deployment most often
// breaks.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	case "remote":
		if c.Store.RemoteBaseURL == "" {
			return fmt.Errorf("store.remote_base_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Market.Regime.Epsilon < 0 || c.Market.Regime.Epsilon > 0.1 {
		return fmt.Errorf("market.regime.epsilon %.4f outside [0, 0.1]", c.Market.Regime.Epsilon)
	}
	if c.Market.SwingLow.Lookback <= 0 || c.Market.SwingLow.Confirm <= 0 {
		return fmt.Errorf("market.swing_low lookback/confirm must be positive")
	}
	for _, step := range c.Market.Regime.ExposureSteps {
		if step.Level < 0 || step.Level > 100 || step.Level%20 != 0 {
			return fmt.Errorf("exposure level %d outside the 0..100 step domain", step.Level)
		}
	}
	if c.Signals.Producer.BreakoutPriority <= 0 {
		return fmt.Errorf("signals.producer.breakout_priority must be positive")
	}
	return nil
}
