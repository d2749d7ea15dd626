package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables. Unparseable
// values fall back to the defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", 60, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         envOr("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       clientSet(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       clientSet(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: credential endpoints (strictest limits)
		{Path: "/api/v1/users/signup", Method: "POST", Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/api/v1/users/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/api/v1/users/resend-verification", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},
		{Path: "/api/v1/users/refresh", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/users/", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},

		// Tier 2: write operations (moderate limits)
		{Path: "/api/v1/users/", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/users/", Method: "DELETE", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs/", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/jobs/", Method: "DELETE", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/applications", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/applications/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/applications/", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/applications/", Method: "DELETE", Limit: 30, Window: time.Minute, Burst: 10},

		// Tier 3: read operations - handled by default limit
		// Tier 4: health and metrics (unlimited) - handled by special case in matcher
	}
}

func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// clientSet turns a comma-separated list of client IPs into a lookup set.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
