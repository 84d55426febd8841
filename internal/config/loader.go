package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. ${VAR} placeholders are
// expanded from the environment before parsing.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
	}

	cfg = applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills zero-valued fields that yaml left unset. Unmarshal
// overwrites whole sections, so the per-field fallback lives here.
func applyDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.PrepareInterval == 0 {
		cfg.Service.PrepareInterval = defaults.Service.PrepareInterval
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = defaults.Cache.Path
	}
	if cfg.Dispatch.Workers == 0 {
		cfg.Dispatch.Workers = defaults.Dispatch.Workers
	}
	if cfg.Dispatch.QueueDepth == 0 {
		cfg.Dispatch.QueueDepth = defaults.Dispatch.QueueDepth
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.Sources == nil {
		cfg.Sources = defaults.Sources
	}

	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.PrepareInterval <= 0 {
		return fmt.Errorf("service.prepare_interval must be positive")
	}

	if cfg.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}

	if cfg.Dispatch.Workers <= 0 {
		return fmt.Errorf("dispatch.workers must be positive")
	}
	if cfg.Dispatch.QueueDepth <= 0 {
		return fmt.Errorf("dispatch.queue_depth must be positive")
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when api is enabled")
		}
		if envVarPattern.MatchString(cfg.API.Token) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.Token)
			if len(matches) > 1 {
				return fmt.Errorf("api.token: environment variable ${%s} is not set", matches[1])
			}
			return fmt.Errorf("api.token: unresolved environment variable")
		}
	}

	for id, opts := range cfg.Sources {
		if id == "" {
			return fmt.Errorf("sources: source id must not be empty")
		}
		if opts.Type() == "" {
			return fmt.Errorf("sources.%s: type is required", id)
		}
	}

	return nil
}
