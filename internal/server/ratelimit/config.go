package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/pitchprep/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromSettings builds a limiter configuration from the application settings.
func FromSettings(rl config.RateLimitConfig) *Config {
	if !rl.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       parseIPList(rl.Whitelist),
		Blacklist:       parseIPList(rl.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(rl.GenerateLimit, rl.GenerateWindow),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Every endpoint
// that may call the model or the search API shares the generation budget.
func DefaultEndpointConfigs(generateLimit int, generateWindow time.Duration) []EndpointConfig {
	burst := max(generateLimit/10, 2)
	return []EndpointConfig{
		{Path: "/pitch/generate", Method: http.MethodPost, Limit: generateLimit, Window: generateWindow, Burst: burst},
		// A bulk run fans out to a whole roster; one request is charged like many.
		{Path: "/pitch/generate-all", Method: http.MethodPost, Limit: max(generateLimit/10, 1), Window: generateWindow, Burst: 1},
		{Path: "/employers/research", Method: http.MethodPost, Limit: generateLimit, Window: generateWindow, Burst: burst},

		{Path: "/pitches", Method: http.MethodDelete, Limit: 20, Window: time.Minute, Burst: 5},
	}
}

// parseIPList turns a list of addresses into a set, ignoring blanks.
func parseIPList(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
