package config

import "time"

// CacheConfig defines settings for the response cache placed in front of
// the public catalogue.  When Enabled is false or no Redis client is
// configured, caching is disabled.  Seat maps change with every booking,
// so their TTL is kept short.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	SeatsTTL     time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envList("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		SeatsTTL:     envDur("CACHE_SEATS_TTL", 2*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "evt:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// WithTTL returns a copy of c using ttl.
func (c CacheConfig) WithTTL(ttl time.Duration) CacheConfig {
	c.TTL = ttl
	return c
}
