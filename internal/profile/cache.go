package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-calendar/internal/models"
)

const refKeyPrefix = "profile_ref:"

// RefCache is a cache-aside store for resolved profile references. Events
// resolve every assigned profile on each read, so hot profiles are kept in
// Redis with a TTL instead of hitting the database per reference.
type RefCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRefCache(client *redis.Client, ttl time.Duration) *RefCache {
	return &RefCache{Client: client, TTL: ttl}
}

// Get returns the cached reference, or nil on a miss. Redis errors are
// treated as misses; the caller falls through to the database.
func (c *RefCache) Get(ctx context.Context, id string) *models.ProfileRef {
	raw, err := c.Client.Get(ctx, refKeyPrefix+id).Result()
	if err != nil {
		return nil
	}
	var ref models.ProfileRef
	if err := json.Unmarshal([]byte(raw), &ref); err != nil {
		return nil
	}
	return &ref
}

// Set stores a resolved reference, best effort.
func (c *RefCache) Set(ctx context.Context, ref models.ProfileRef) {
	raw, err := json.Marshal(ref)
	if err != nil {
		return
	}
	c.Client.Set(ctx, refKeyPrefix+ref.ID, raw, c.TTL)
}

// Invalidate drops a cached reference after a profile mutation.
func (c *RefCache) Invalidate(ctx context.Context, id string) {
	c.Client.Del(ctx, refKeyPrefix+id)
}
