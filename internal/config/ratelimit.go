package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig tunes the token-bucket limiter in front of the auth
// endpoints.  Defaults allow 10 attempts with one token refilled per
// two seconds, enough for humans and hostile to credential stuffing.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillInterval time.Duration
    TTL            time.Duration
    Prefix         string
}

// LoadRateLimitConfig reads the limiter settings from the environment.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
        Capacity:       10,
        RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_EVERY", "2s")),
        TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "parkwise:rl"),
    }
    if n := parseIntEnv("RATE_LIMIT_CAPACITY", 10); n > 0 {
        cfg.Capacity = n
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = 2 * time.Second
    }
    if cfg.TTL < 5*cfg.RefillInterval {
        cfg.TTL = 5 * cfg.RefillInterval
    }
    return cfg
}

func parseIntEnv(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return def
}
