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

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	enabled := getEnvBool(getenv, "RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	defaultLimit := getEnvInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", 1000)
	defaultWindow := getEnvDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", time.Minute)
	cleanupInterval := getEnvDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)

	whitelist := parseIPList(getEnvString(getenv, "RATE_LIMIT_WHITELIST", ""))
	blacklist := parseIPList(getEnvString(getenv, "RATE_LIMIT_BLACKLIST", ""))

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       whitelist,
		Blacklist:       blacklist,
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Full reports fan out to every provider for every entity.
		{Path: "/report", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/report/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},

		// Single analyses still call the providers.
		{Path: "/discover", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/analyze", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/citations", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/traffic-share", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},

		// Run log reads hit the database.
		{Path: "/runs/{id}", Method: "GET", Limit: 600, Window: time.Hour, Burst: 20},
		{Path: "/history/{entity}", Method: "GET", Limit: 600, Window: time.Hour, Burst: 20},

		// /runs and /ravi use the default limit; /health is unlimited.
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(getenv func(string) string, key string, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

