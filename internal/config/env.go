package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads key=value pairs from path into the process environment
// if the file exists, silently doing nothing otherwise — local development
// convenience, never required in a deployed environment.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnvironmentOverrides layers CHESSMESH_* environment variables over
// cfg, highest priority after the YAML file.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("CHESSMESH_BIND_ADDR"); v != "" {
		cfg.Server.BindAddr = v
	}
	if v := os.Getenv("CHESSMESH_KEY_PATH"); v != "" {
		cfg.Identity.KeyPath = v
	}
	if v := os.Getenv("CHESSMESH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHESSMESH_POSTGRES_DSN"); v != "" {
		cfg.Repository.Backend = "postgres"
		cfg.Repository.PostgresDSN = v
	}
	if v := os.Getenv("CHESSMESH_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxConnections = n
		}
	}
	if v := os.Getenv("CHESSMESH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
}
