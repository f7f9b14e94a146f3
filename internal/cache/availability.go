package cache

import (
    "context"
    "encoding/json"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/mfarhadi/parkwise/internal/repository"
)

// LotLister is the slice of the lot repository the cache reads through to.
type LotLister interface {
    ListWithAvailability(ctx context.Context) ([]repository.LotAvailability, error)
}

// Availability caches the public lot listing in Redis.  A nil client
// disables caching entirely; every read then goes straight to the
// database.  Redis errors are swallowed for the same reason: the cache
// must never make the listing less available than the database alone.
type Availability struct {
    client *redis.Client
    repo   LotLister
    ttl    time.Duration
    key    string
}

// NewAvailability builds the cache.  prefix namespaces the Redis key so
// several deployments can share one Redis instance.
func NewAvailability(client *redis.Client, repo LotLister, ttl time.Duration, prefix string) *Availability {
    if ttl <= 0 {
        ttl = 60 * time.Second
    }
    if prefix == "" {
        prefix = "parkwise"
    }
    return &Availability{client: client, repo: repo, ttl: ttl, key: prefix + ":parking_lots"}
}

// List returns the lot listing, served from Redis when a fresh copy
// exists and from the database otherwise.
func (c *Availability) List(ctx context.Context) ([]repository.LotAvailability, error) {
    if c.client != nil {
        if raw, err := c.client.Get(ctx, c.key).Bytes(); err == nil {
            var lots []repository.LotAvailability
            if err := json.Unmarshal(raw, &lots); err == nil {
                return lots, nil
            }
        }
    }
    lots, err := c.repo.ListWithAvailability(ctx)
    if err != nil {
        return nil, err
    }
    if c.client != nil {
        if raw, err := json.Marshal(lots); err == nil {
            c.client.Set(ctx, c.key, raw, c.ttl)
        }
    }
    return lots, nil
}

// Invalidate drops the cached listing.  Called after any write that can
// change availability: reserve, release, or an admin lot change.
func (c *Availability) Invalidate(ctx context.Context) {
    if c.client == nil {
        return
    }
    c.client.Del(ctx, c.key)
}

// Enabled reports whether a Redis client is attached.
func (c *Availability) Enabled() bool { return c.client != nil }
