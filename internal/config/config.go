// Package config provides configuration management for chessmesh: a YAML
// file layered with CHESSMESH_* environment-variable overrides. Values inside
// the YAML file are used as written; no variable substitution is performed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Environment string          `yaml:"environment"`
	Identity    IdentityConfig  `yaml:"identity"`
	Server      ServerConfig    `yaml:"server"`
	Wire        WireConfig      `yaml:"wire"`
	RateLimits  RateLimitConfig `yaml:"rate_limits"`
	Repository  RepositoryConfig `yaml:"repository"`
	Logging     LoggingConfig   `yaml:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// IdentityConfig locates the installation's persisted signing keypair.
type IdentityConfig struct {
	KeyPath string `yaml:"key_path"`
}

// ServerConfig configures the accept loop.
type ServerConfig struct {
	BindAddr       string `yaml:"bind_addr"`
	MaxConnections int    `yaml:"max_connections"`
}

// WireConfig configures framing limits and timeouts.
type WireConfig struct {
	MaxMessageSize int           `yaml:"max_message_size"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// RateLimitConfig configures the security rate limiter's thresholds.
type RateLimitConfig struct {
	MaxMovesPerMinute        int           `yaml:"max_moves_per_minute"`
	MaxInvitationsPerHour    int           `yaml:"max_invitations_per_hour"`
	MaxSyncRequestsPerMinute int           `yaml:"max_sync_requests_per_minute"`
	MaxActiveGames           int           `yaml:"max_active_games"`
	BurstMovesAllowed        int           `yaml:"burst_moves_allowed"`
	BurstWindow              time.Duration `yaml:"burst_window"`
}

// RepositoryConfig selects and configures the persistence backend.
type RepositoryConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "postgres"
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in defaults, matching spec.md §6's documented
// constants.
func Default() *Config {
	return &Config{
		Environment: "development",
		Identity:    IdentityConfig{KeyPath: "~/.chessmesh/identity.key"},
		Server:      ServerConfig{BindAddr: "0.0.0.0:7890", MaxConnections: 1000},
		Wire: WireConfig{
			MaxMessageSize: 16 * 1024 * 1024,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		RateLimits: RateLimitConfig{
			MaxMovesPerMinute:        30,
			MaxInvitationsPerHour:    20,
			MaxSyncRequestsPerMinute: 10,
			MaxActiveGames:           10,
			BurstMovesAllowed:        5,
			BurstWindow:              5 * time.Second,
		},
		Repository: RepositoryConfig{Backend: "memory"},
		Logging:    LoggingConfig{Level: "info"},
		Metrics:    MetricsConfig{Enabled: false, Addr: "127.0.0.1:9090"},
	}
}

// LoadFromFile parses path as YAML over the built-in defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
