package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "YES")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "90s")
	if !envBool("X_BOOL", false) {
		t.Error("envBool")
	}
	if envInt("X_INT", 7) != 7 {
		t.Error("envInt should fall back on parse error")
	}
	if envDur("X_DUR", 0) != 90*time.Second {
		t.Error("envDur")
	}
	if envStr("X_UNSET", "d") != "d" {
		t.Error("envStr")
	}
	t.Setenv("X_LIST", "get, head,,")
	if m := envList("X_LIST", ""); !m["GET"] || !m["HEAD"] || len(m) != 2 {
		t.Errorf("envList = %v", m)
	}
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("CHECKOUT_RATE_LIMIT_BURST", "3")
	t.Setenv("CHECKOUT_RATE_LIMIT_REFILL_EVERY", "20s")
	t.Setenv("CHECKOUT_RATE_LIMIT_TTL", "1s")
	c := LoadCheckoutRateLimitConfig()
	if c.Capacity != 3 || c.RefillTokens != 1 || c.RefillInterval != 20*time.Second {
		t.Fatalf("config = %+v", c)
	}
	if c.TTL != 100*time.Second {
		t.Fatalf("ttl = %v, want at least five intervals", c.TTL)
	}
	if c.Prefix != "evt:rl:checkout" {
		t.Fatalf("prefix = %q", c.Prefix)
	}
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	if got := LoadRedisConfig().Addr; got != "redis:6380" {
		t.Fatalf("addr = %q", got)
	}
}

func TestLoad(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "u", "DB_HOST": "h",
		"DB_PORT": "3306", "DB_NAME": "tickets", "JWT_SECRET": "s",
		"ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "4",
		"RAZORPAY_BASE_URL": "http://gw.local/v1/", "RABBITMQ_ENABLED": "false",
	} {
		t.Setenv(k, v)
	}
	c := Load()
	if c.OrderTTL != 30*time.Minute || c.LogLevel != "info" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Gateway.BaseURL != "http://gw.local/v1" || c.Queue.Enabled {
		t.Fatalf("services = %+v %+v", c.Gateway, c.Queue)
	}
}

func TestCORSOrigins(t *testing.T) {
	if got := corsOrigins(); len(got) != 1 || got[0] != "*" {
		t.Fatalf("default = %v", got)
	}
	t.Setenv("CORS_ORIGINS", "https://tickets.example, ,http://localhost:5173")
	got := corsOrigins()
	if len(got) != 2 || got[1] != "http://localhost:5173" {
		t.Fatalf("origins = %v", got)
	}
}
