package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: tilecraft-test
  log_level: debug
  prepare_interval: 100ms
cache:
  path: ./testdata/tiles.db
dispatch:
  workers: 2
  queue_depth: 16
api:
  enabled: true
  listen: "127.0.0.1:9090"
  token: secret
sources:
  basemap:
    type: vector
    url: "https://tiles.example/tiles.json"
  hillshade:
    type: raster
    tiles:
      - "https://tiles.example/{z}/{x}/{y}.png"
    tileSize: 256
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tilecraft-test", cfg.Service.Name)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, 100*time.Millisecond, cfg.Service.PrepareInterval)
	assert.Equal(t, "./testdata/tiles.db", cfg.Cache.Path)
	assert.Equal(t, 2, cfg.Dispatch.Workers)
	assert.Equal(t, 16, cfg.Dispatch.QueueDepth)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "secret", cfg.API.Token)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "vector", cfg.Sources["basemap"].Type())
	assert.Equal(t, "raster", cfg.Sources["hillshade"].Type())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, want.Service.Name, cfg.Service.Name)
	assert.Equal(t, want.Service.LogLevel, cfg.Service.LogLevel)
	assert.Equal(t, want.Service.PrepareInterval, cfg.Service.PrepareInterval)
	assert.Equal(t, want.Cache.Path, cfg.Cache.Path)
	assert.Equal(t, want.Dispatch.Workers, cfg.Dispatch.Workers)
	assert.Equal(t, want.Dispatch.QueueDepth, cfg.Dispatch.QueueDepth)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TILECRAFT_TEST_TOKEN", "from-env")

	path := writeConfig(t, `
api:
  enabled: true
  token: ${TILECRAFT_TEST_TOKEN}
sources: {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Token)
}

func TestLoadRejectsUnsetEnvToken(t *testing.T) {
	path := writeConfig(t, `
api:
  enabled: true
  token: ${TILECRAFT_DEFINITELY_UNSET_TOKEN}
sources: {}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TILECRAFT_DEFINITELY_UNSET_TOKEN")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "service:\n  log_level: chatty\nsources: {}\n",
			want: "service.log_level",
		},
		{
			name: "negative workers",
			yaml: "dispatch:\n  workers: -1\nsources: {}\n",
			want: "dispatch.workers",
		},
		{
			name: "source without type",
			yaml: "sources:\n  broken:\n    url: \"https://x.example\"\n",
			want: "sources.broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
