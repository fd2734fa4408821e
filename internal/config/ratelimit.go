package config

import "time"

// RateLimitConfig controls the Redis token-bucket limiter.  KeyStrategy
// selects which request attributes form the bucket key (ip, user, route or
// combinations joined with underscores).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
}

// LoadRateLimitConfig reads rate limiter settings from the environment,
// clamping values into a usable range.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Bucket state must outlive several refill intervals or the limiter
	// forgets in-flight buckets and over-admits.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
