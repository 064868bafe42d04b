// Package dedupcache is an optional Redis-backed filter suppressing
// re-ingestion of (device_id, timestamp) pairs the pipeline has already
// forwarded. It is not load-bearing: the ingestion endpoint already
// tolerates duplicates (spec §5 Cancellation), so a disabled or unreachable
// cache only costs redundant POSTs, never correctness.
package dedupcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// ttl bounds how long a (device_id, timestamp) key is remembered; wide
// enough to span several fetch-locations invocations without growing
// unbounded.
const ttl = 7 * 24 * time.Hour

// Cache suppresses re-forwarding of already-seen reports.
type Cache struct {
	redisClient *redis.Client
}

// New connects to addr. Dedup is disabled entirely when cfg.Addr is empty;
// Seen, Mark, Ping and Close are then no-ops (Seen always reports false).
func New(cfg model.KeyValue) *Cache {
	if cfg.Addr == "" {
		return &Cache{}
	}
	return &Cache{redisClient: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

// Enabled reports whether a cache connection was configured.
func (c *Cache) Enabled() bool {
	return c.redisClient != nil
}

// Seen reports whether (deviceID, timestamp) has already been forwarded. A
// disabled cache always reports false (never suppress).
func (c *Cache) Seen(ctx context.Context, deviceID string, timestamp int64) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.redisClient.Exists(ctx, key(deviceID, timestamp)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records (deviceID, timestamp) as forwarded.
func (c *Cache) Mark(ctx context.Context, deviceID string, timestamp int64) error {
	if !c.Enabled() {
		return nil
	}
	return c.redisClient.Set(ctx, key(deviceID, timestamp), "1", ttl).Err()
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.redisClient.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.redisClient.Close()
}

func key(deviceID string, timestamp int64) string {
	return fmt.Sprintf("dedup:%s:%d", deviceID, timestamp)
}
