package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache applied to public browse
// routes.  Only the listed HTTP methods are cached and only bodies up to
// MaxBodyBytes are stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from the environment.
func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range strings.Split(getenv("CACHE_METHODS", "GET"), ",") {
		if m = strings.TrimSpace(strings.ToUpper(m)); m != "" {
			methods[m] = true
		}
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
