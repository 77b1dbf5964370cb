package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig limits one route. Paths ending in "/" match by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // bucket capacity, defaults to Limit
}

// Unlimited reports whether the rule disables throttling.
func (e *EndpointConfig) Unlimited() bool {
	return e.Limit <= 0 || e.Window <= 0
}

func (e *EndpointConfig) capacity() int {
	if e.Burst > 0 {
		return e.Burst
	}
	return e.Limit
}

// Config holds limiter settings.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Blocklist       map[string]bool
	Endpoints       []EndpointConfig
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allowlist:       map[string]bool{},
		Blocklist:       map[string]bool{},
		Endpoints:       DefaultEndpointConfigs(),
	}
}

// LoadConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_DEFAULT_LIMIT,
// RATE_LIMIT_DEFAULT_WINDOW, RATE_LIMIT_CLEANUP_INTERVAL,
// RATE_LIMIT_ALLOWLIST and RATE_LIMIT_BLOCKLIST on top of Defaults.
func LoadConfig() *Config {
	cfg := Defaults()
	cfg.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	cfg.DefaultLimit = envInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = envDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = envDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Allowlist = parseIPList(os.Getenv("RATE_LIMIT_ALLOWLIST"))
	cfg.Blocklist = parseIPList(os.Getenv("RATE_LIMIT_BLOCKLIST"))
	return cfg
}

// DefaultEndpointConfigs throttles credential checks and uploads hardest,
// other writes moderately. Reads fall back to the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/health", Method: http.MethodGet},

		{Path: "/api/auth/login", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/api/auth/register", Method: http.MethodPost, Limit: 5, Window: time.Minute, Burst: 3},

		{Path: "/api/cv", Method: http.MethodPost, Limit: 20, Window: time.Hour, Burst: 5},
		{Path: "/api/profile/", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/api/resumes", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},

		{Path: "/api/clip", Method: http.MethodPost, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/jobs/", Method: http.MethodPatch, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/api/resumes/", Method: http.MethodPatch, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/api/cv/skills/", Method: http.MethodPatch, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/api/resumes/", Method: http.MethodDelete, Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func parseIPList(list string) map[string]bool {
	out := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			out[ip] = true
		}
	}
	return out
}
