// Package config loads pitchprep settings from a YAML file, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/pitchprep/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g. PITCHPREP_SERVER_PORT.
const EnvPrefix = "PITCHPREP"

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Research   ResearchConfig   `mapstructure:"research"`
	Generation GenerationConfig `mapstructure:"generation"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	Retention time.Duration `mapstructure:"retention"`
}

type GeminiConfig struct {
	APIKey string       `mapstructure:"api_key"`
	Models ModelsConfig `mapstructure:"models"`
}

type ModelsConfig struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

type ResearchConfig struct {
	SearchAPIKey string        `mapstructure:"search_api_key"`
	SearchCX     string        `mapstructure:"search_cx"`
	TTL          time.Duration `mapstructure:"ttl"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UseBrowser   bool          `mapstructure:"use_browser"`
}

// SearchEnabled reports whether Custom Search credentials are configured.
func (r ResearchConfig) SearchEnabled() bool {
	return r.SearchAPIKey != "" && r.SearchCX != ""
}

type GenerationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	GenerateLimit   int           `mapstructure:"generate_limit"`
	GenerateWindow  time.Duration `mapstructure:"generate_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Concurrency     int           `mapstructure:"concurrency"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers every key with its default so environment overrides
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	models := llm.DefaultConfig().Models

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.retention", 7*24*time.Hour)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.models.lite", models[llm.TierLite])
	v.SetDefault("gemini.models.standard", models[llm.TierStandard])
	v.SetDefault("gemini.models.advanced", models[llm.TierAdvanced])
	v.SetDefault("research.search_api_key", "")
	v.SetDefault("research.search_cx", "")
	v.SetDefault("research.ttl", 24*time.Hour)
	v.SetDefault("research.timeout", 20*time.Second)
	v.SetDefault("research.use_browser", false)
	v.SetDefault("generation.timeout", 45*time.Second)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.default_limit", 1000)
	v.SetDefault("ratelimit.default_window", time.Minute)
	v.SetDefault("ratelimit.generate_limit", 30)
	v.SetDefault("ratelimit.generate_window", time.Hour)
	v.SetDefault("ratelimit.cleanup_interval", 5*time.Minute)
	v.SetDefault("ratelimit.whitelist", []string{})
	v.SetDefault("ratelimit.blacklist", []string{})
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.refresh_interval", 6*time.Hour)
	v.SetDefault("scheduler.concurrency", 4)
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads configuration into a Config. path names a config file; when empty
// pitchprep.yaml is looked up in the working directory and ./configs, and its
// absence is not an error. A nil v uses a fresh viper instance.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	loadEnvFile()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names kept for existing deployments.
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("jwt.secret", EnvPrefix+"_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("pitchprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env from the working directory when present. Variables
// already set in the environment win.
func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Validate checks value ranges. Secrets required only by some commands are
// checked by RequireServe and RequireGeneration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Research.TTL <= 0 {
		return fmt.Errorf("config error: 'research.ttl' must be positive")
	}
	if c.Research.Timeout <= 0 {
		return fmt.Errorf("config error: 'research.timeout' must be positive")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("config error: 'generation.timeout' must be positive")
	}
	if c.Scheduler.Concurrency < 1 {
		return fmt.Errorf("config error: 'scheduler.concurrency' must be at least 1")
	}
	if c.Scheduler.Enabled && c.Scheduler.RefreshInterval < time.Minute {
		return fmt.Errorf("config error: 'scheduler.refresh_interval' must be at least 1m")
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.GenerateLimit < 1) {
		return fmt.Errorf("config error: rate limits must be at least 1")
	}
	if c.JWT.Secret != "" {
		if err := c.JWT.normalize(); err != nil {
			return err
		}
	}
	return nil
}

// RequireGeneration checks the settings every generating command needs.
func (c *Config) RequireGeneration() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("config error: 'gemini.api_key' is required (set GEMINI_API_KEY)")
	}
	return nil
}

// RequireServe checks the settings the HTTP server needs.
func (c *Config) RequireServe() error {
	if err := c.RequireGeneration(); err != nil {
		return err
	}
	if c.Database.URL == "" {
		return fmt.Errorf("config error: 'database.url' is required")
	}
	return c.RequireToken()
}

// RequireToken checks the signing settings bearer tokens need.
func (c *Config) RequireToken() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("config error: 'jwt.secret' is required (set JWT_SECRET)")
	}
	return c.JWT.normalize()
}

// LLMConfig builds the model tier configuration.
func (c *Config) LLMConfig() *llm.Config {
	return llm.DefaultConfig().
		WithModel(llm.TierLite, c.Gemini.Models.Lite).
		WithModel(llm.TierStandard, c.Gemini.Models.Standard).
		WithModel(llm.TierAdvanced, c.Gemini.Models.Advanced)
}
