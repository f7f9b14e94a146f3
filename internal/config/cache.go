package config

import (
    "os"
    "time"
)

// CacheConfig defines settings for the lot availability cache.  When
// Enabled is false or no Redis client could be constructed, reads go
// straight to the database.  TTL bounds how stale the cached listing can
// get; invalidation on writes usually refreshes it much sooner.  Prefix
// namespaces the keys so several deployments can share one Redis.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: getenv("CACHE_ENABLED", "true") == "true",
        TTL:     parseDur(getenv("CACHE_TTL", "60s")),
        Prefix:  getenv("CACHE_PREFIX", "parkwise"),
    }
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Minute
    }
    return d
}
