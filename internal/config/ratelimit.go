package config

import "time"

// RateLimitConfig configures the Redis token bucket.  Checkout endpoints
// get their own, tighter bucket since every call reaches the gateway.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig builds the general bucket from RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
	return loadRateLimit("RATE_LIMIT", 60, "ip_user_route", "evt:rl")
}

// LoadCheckoutRateLimitConfig builds the checkout bucket from
// CHECKOUT_RATE_LIMIT_* variables.
func LoadCheckoutRateLimitConfig() RateLimitConfig {
	return loadRateLimit("CHECKOUT_RATE_LIMIT", 10, "user_route", "evt:rl:checkout")
}

func loadRateLimit(p string, capacity int, strategy, prefix string) RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool(p+"_ENABLED", true),
		Capacity:       envInt(p+"_CAPACITY", capacity),
		RefillTokens:   envInt(p+"_REFILL_TOKENS", 1),
		RefillInterval: envDur(p+"_REFILL_INTERVAL", time.Second),
		TTL:            envDur(p+"_TTL", 10*time.Minute),
		KeyStrategy:    envStr(p+"_KEY_STRATEGY", strategy),
		Prefix:         envStr(p+"_PREFIX", prefix),
		Debug:          envBool(p+"_DEBUG", false),
	}
	if b := envInt(p+"_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur(p+"_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}
