package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reaishma/Healthcare-informatics-solution/rules"
	"github.com/Reaishma/Healthcare-informatics-solution/validation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "careflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	testChdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Hub.WriteTimeout)
	assert.Equal(t, "careflow:events", cfg.Relay.Channel)
	assert.False(t, cfg.Seed)
	assert.Len(t, cfg.Rules.Advisor(), 2)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9090"
storage:
  driver: redis
redis:
  addr: "redis:6379"
  pool_size: 20
  idle_timeout: 30s
hub:
  write_timeout: 2s
rules:
  bottleneck: ""
seed: true
`)
	t.Setenv("CAREFLOW_HTTP_ADDR", ":7070")
	t.Setenv("CAREFLOW_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Redis.IdleTimeout)
	assert.Equal(t, 2*time.Second, cfg.Hub.WriteTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Seed)

	advisor := cfg.Rules.Advisor()
	require.Len(t, advisor, 1)
	assert.Equal(t, rules.LevelCritical, advisor[0].Level)
}

func TestLoad_EmptyEnvDisablesRule(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("CAREFLOW_RULES_CRITICAL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Rules.Critical)

	advisor := cfg.Rules.Advisor()
	require.Len(t, advisor, 1)
	assert.Equal(t, rules.LevelBottleneck, advisor[0].Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTP:    HTTPConfig{Addr: ":8080"},
			Storage: StorageConfig{Driver: "memory"},
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Log:     LogConfig{Level: "info", Format: "json"},
			Hub:     HubConfig{WriteTimeout: time.Second},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"UnknownDriver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"PostgresWithoutDSN", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"RelayWithoutRedis", func(c *Config) { c.Relay.Enabled = true; c.Redis.Addr = "" }},
		{"ZeroWriteTimeout", func(c *Config) { c.Hub.WriteTimeout = 0 }},
		{"BadLogFormat", func(c *Config) { c.Log.Format = "xml" }},
		{"NoAddr", func(c *Config) { c.HTTP.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.True(t, validation.IsValidationError(err))
		})
	}
}
