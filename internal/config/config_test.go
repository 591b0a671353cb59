package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pitchprep/internal/llm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitchprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Research.TTL)
	assert.Equal(t, 20*time.Second, cfg.Research.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Redis.Retention)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, 4, cfg.Scheduler.Concurrency)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Research.SearchEnabled())
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  port: 9090
research:
  ttl: 2h
  search_api_key: key
  search_cx: cx
scheduler:
  enabled: true
  refresh_interval: 30m
gemini:
  models:
    standard: gemini-custom
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Research.TTL)
	assert.True(t, cfg.Research.SearchEnabled())
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.RefreshInterval)
	assert.Equal(t, "gemini-custom", cfg.LLMConfig().Models[llm.TierStandard])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PITCHPREP_SERVER_PORT", "7000")
	t.Setenv("PITCHPREP_RESEARCH_TTL", "90m")
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 90*time.Minute, cfg.Research.TTL)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, "0123456789abcdef0123", cfg.JWT.Secret)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PITCHPREP_SCHEDULER_CONCURRENCY=9\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PITCHPREP_SCHEDULER_CONCURRENCY") })

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Scheduler.Concurrency)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "research:\n  ttl: 0s\n")

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "research.ttl")
}

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		Research:   ResearchConfig{TTL: time.Hour, Timeout: time.Second},
		Generation: GenerationConfig{Timeout: time.Second},
		RateLimit:  RateLimitConfig{Enabled: true, DefaultLimit: 10, GenerateLimit: 1},
		Scheduler:  SchedulerConfig{Concurrency: 1},
		JWT:        JWTConfig{ExpirationHours: 24},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"research timeout", func(c *Config) { c.Research.Timeout = 0 }, "research.timeout"},
		{"generation timeout", func(c *Config) { c.Generation.Timeout = -1 }, "generation.timeout"},
		{"concurrency", func(c *Config) { c.Scheduler.Concurrency = 0 }, "scheduler.concurrency"},
		{"refresh interval", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.RefreshInterval = time.Second
		}, "scheduler.refresh_interval"},
		{"rate limits", func(c *Config) { c.RateLimit.GenerateLimit = 0 }, "rate limits"},
		{"rate limits off", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.GenerateLimit = 0
		}, ""},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireServe(t *testing.T) {
	cfg := validConfig()
	assert.ErrorContains(t, cfg.RequireServe(), "gemini.api_key")

	cfg.Gemini.APIKey = "k"
	assert.NoError(t, cfg.RequireGeneration())
	assert.ErrorContains(t, cfg.RequireServe(), "database.url")

	cfg.Database.URL = "postgres://localhost/pitchprep"
	assert.ErrorContains(t, cfg.RequireServe(), "jwt.secret")

	cfg.JWT.Secret = "0123456789abcdef"
	assert.NoError(t, cfg.RequireServe())
}

func TestRequireToken(t *testing.T) {
	cfg := validConfig()
	assert.ErrorContains(t, cfg.RequireToken(), "jwt.secret")

	cfg.JWT.Secret = "short"
	assert.ErrorContains(t, cfg.RequireToken(), "at least 16 characters")

	cfg.JWT.Secret = "0123456789abcdef"
	assert.NoError(t, cfg.RequireToken())
}
