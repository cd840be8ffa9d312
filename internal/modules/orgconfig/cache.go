package orgconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"etoile/internal/modules/pricing"
	"etoile/internal/types"
)

// BundleCache is a read-through Redis cache in front of Store.LoadBundle.
// Configuration changes rarely relative to quote volume, so a short TTL keeps
// the quoting path off the database without a real invalidation protocol.
// Redis being down degrades to a database read, never to an error.
type BundleCache struct {
	store *Store
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewBundleCache(store *Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *BundleCache {
	return &BundleCache{store: store, rdb: rdb, ttl: ttl, log: log}
}

func bundleKey(orgID types.ID) string {
	return fmt.Sprintf("etoile:bundle:%s", orgID)
}

func (c *BundleCache) LoadBundle(ctx context.Context, orgID types.ID) (pricing.Bundle, error) {
	key := bundleKey(orgID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var b pricing.Bundle
		if jsonErr := json.Unmarshal(raw, &b); jsonErr == nil {
			return b, nil
		}
		// A corrupt entry falls through to the database and gets rewritten.
		c.log.Warn("corrupt bundle cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("bundle cache read failed", zap.String("key", key), zap.Error(err))
	}

	b, err := c.store.LoadBundle(ctx, orgID)
	if err != nil {
		return b, err
	}

	if raw, err := json.Marshal(b); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("bundle cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return b, nil
}

// Invalidate drops the cached bundle after a configuration change.
func (c *BundleCache) Invalidate(ctx context.Context, orgID types.ID) error {
	return c.rdb.Del(ctx, bundleKey(orgID)).Err()
}
