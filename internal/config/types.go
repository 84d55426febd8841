package config

import (
	"time"

	"github.com/tilecraft/tilecraft/internal/source"
)

// Config represents the complete tilecraft configuration.
type Config struct {
	Service  ServiceConfig             `yaml:"service"`
	Cache    CacheConfig               `yaml:"cache"`
	Dispatch DispatchConfig            `yaml:"dispatch"`
	API      APIConfig                 `yaml:"api,omitempty"`
	Sources  map[string]source.Options `yaml:"sources"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	LogLevel        string        `yaml:"log_level"`
	PrepareInterval time.Duration `yaml:"prepare_interval"`
}

// CacheConfig defines tile cache storage settings.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// DispatchConfig sizes the worker pool.
type DispatchConfig struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Token   string `yaml:"token"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            "tilecraft",
			LogLevel:        "info",
			PrepareInterval: time.Second / 30,
		},
		Cache: CacheConfig{
			Path: "./data/tiles.db",
		},
		Dispatch: DispatchConfig{
			Workers:    4,
			QueueDepth: 128,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Sources: make(map[string]source.Options),
	}
}
