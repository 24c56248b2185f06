// Package cache is the tiered response cache in front of the upstream
// data providers. The short tier lives in process memory, the medium
// tier in Redis when one is configured, and the long tier in the
// snapshot store. Lookups walk short to long and refill the faster
// tiers on a hit.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mfreitag/solarledger/internal/metrics"
)

// Tier selects how long an entry stays valid.
type Tier string

const (
	TierShort  Tier = "short"  // 1 hour, volatile data like live analyses
	TierMedium Tier = "medium" // 1 day, production estimates
	TierLong   Tier = "long"   // 30 days, tariff snapshots and climatology
)

// TTL returns the tier's validity window.
func (t Tier) TTL() time.Duration {
	switch t {
	case TierMedium:
		return 24 * time.Hour
	case TierLong:
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// SnapshotStore is the persistence hook for the long tier. Implemented
// by the storage layer; the cache only needs get/put/delete by key.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, key string) ([]byte, time.Time, error)
	PutSnapshot(ctx context.Context, key string, value []byte, expiresAt time.Time) error
	DeleteSnapshot(ctx context.Context, key string) error
}

// RedisClient is the subset of the go-redis client the medium tier
// uses. *redis.Client satisfies it.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Cache is the tiered cache. Any tier may be absent: a nil redis
// client skips the medium tier, a nil store skips the long tier.
type Cache struct {
	memory *memoryTier
	redis  RedisClient
	store  SnapshotStore
	log    zerolog.Logger
}

func New(redis RedisClient, store SnapshotStore, log zerolog.Logger) *Cache {
	return &Cache{
		memory: newMemoryTier(),
		redis:  redis,
		store:  store,
		log:    log.With().Str("component", "cache").Logger(),
	}
}

// Key builds the cache key for a namespace and request payload: the
// namespace prefix plus a SHA-256 of the canonical JSON encoding.
func Key(namespace string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", payload))
	}
	sum := sha256.Sum256(data)
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// Get looks key up short tier first, then medium, then long, decoding
// the stored JSON into out. A deeper-tier hit refills the tiers above
// it.
func (c *Cache) Get(ctx context.Context, key string, tier Tier, out any) bool {
	if data, ok := c.memory.get(key); ok {
		metrics.CacheRequestsTotal.WithLabelValues(string(TierShort), "hit").Inc()
		return json.Unmarshal(data, out) == nil
	}
	metrics.CacheRequestsTotal.WithLabelValues(string(TierShort), "miss").Inc()

	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			metrics.CacheRequestsTotal.WithLabelValues(string(TierMedium), "hit").Inc()
			c.memory.set(key, data, TierShort.TTL())
			return json.Unmarshal(data, out) == nil
		}
		metrics.CacheRequestsTotal.WithLabelValues(string(TierMedium), "miss").Inc()
	}

	if c.store != nil {
		data, expiresAt, err := c.store.GetSnapshot(ctx, key)
		if err == nil && time.Now().Before(expiresAt) {
			metrics.CacheRequestsTotal.WithLabelValues(string(TierLong), "hit").Inc()
			c.refill(ctx, key, data, tier)
			return json.Unmarshal(data, out) == nil
		}
		if err == nil {
			metrics.CacheEvictionsTotal.WithLabelValues(string(TierLong)).Inc()
			if derr := c.store.DeleteSnapshot(ctx, key); derr != nil {
				c.log.Warn().Err(derr).Str("key", key).Msg("failed to evict expired snapshot")
			}
		}
		metrics.CacheRequestsTotal.WithLabelValues(string(TierLong), "miss").Inc()
	}
	return false
}

// Set stores value in every tier up to and including the requested one.
func (c *Cache) Set(ctx context.Context, key string, tier Tier, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	c.memory.set(key, data, minTTL(tier, TierShort))

	if c.redis != nil && (tier == TierMedium || tier == TierLong) {
		if err := c.redis.Set(ctx, key, data, minTTL(tier, TierMedium)).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
	}

	if c.store != nil && tier == TierLong {
		if err := c.store.PutSnapshot(ctx, key, data, time.Now().Add(TierLong.TTL())); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("snapshot put failed")
		}
	}
	return nil
}

// Invalidate drops a key from every tier.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.memory.delete(key)
	if c.redis != nil {
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("redis del failed")
		}
	}
	if c.store != nil {
		if err := c.store.DeleteSnapshot(ctx, key); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("snapshot delete failed")
		}
	}
}

// refill pushes a long-tier hit back into the faster tiers.
func (c *Cache) refill(ctx context.Context, key string, data []byte, tier Tier) {
	c.memory.set(key, data, TierShort.TTL())
	if c.redis != nil && (tier == TierMedium || tier == TierLong) {
		if err := c.redis.Set(ctx, key, data, TierMedium.TTL()).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("redis refill failed")
		}
	}
}

// minTTL caps a tier's TTL at the ceiling tier's window, so an entry
// destined for the long tier still expires out of memory after the
// short window.
func minTTL(tier, ceiling Tier) time.Duration {
	if tier.TTL() < ceiling.TTL() {
		return tier.TTL()
	}
	return ceiling.TTL()
}
