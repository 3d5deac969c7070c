package config

import (
	"os"
)

// LoaderOptions configures Load's search behavior.
type LoaderOptions struct {
	// ConfigPath is the YAML file to load. If empty, defaults are used.
	ConfigPath string
	// DotEnvPath is an optional .env file to load into the process
	// environment before reading CHESSMESH_* overrides.
	DotEnvPath string
}

// DefaultLoaderOptions returns the conventional local-development layout.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigPath: "chessmesh.yaml", DotEnvPath: ".env"}
}

// Load builds a Config by layering, in increasing priority: built-in
// defaults, an optional YAML file, a .env file's variables, and
// CHESSMESH_*-prefixed environment variable overrides.
func Load(opts LoaderOptions) (*Config, error) {
	if opts.DotEnvPath != "" {
		if err := LoadDotEnv(opts.DotEnvPath); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			loaded, err := LoadFromFile(opts.ConfigPath)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	applyEnvironmentOverrides(cfg)
	return cfg, nil
}
