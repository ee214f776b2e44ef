package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DuplicateChecker is the narrow contract the classifier needs from the
// catalog: a remote existence check by SKU.
type DuplicateChecker interface {
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}

// existenceCacheTTL keeps duplicate-check answers fresh enough for a batch
// session while sparing the catalog API on re-verification.
const existenceCacheTTL = 5 * time.Minute

// CachedDuplicateChecker caches remote existence answers in Redis. Redis
// being unavailable only disables caching; every error falls through to the
// wrapped checker.
type CachedDuplicateChecker struct {
	inner    DuplicateChecker
	redis    *redis.Client
	tenantID string
	logger   *logrus.Entry
}

// NewCachedDuplicateChecker wraps a checker with a tenant-scoped Redis cache.
// A nil redis client yields a pass-through checker.
func NewCachedDuplicateChecker(inner DuplicateChecker, redisClient *redis.Client, tenantID string, logger *logrus.Logger) *CachedDuplicateChecker {
	return &CachedDuplicateChecker{
		inner:    inner,
		redis:    redisClient,
		tenantID: tenantID,
		logger:   logger.WithField("component", "existence-cache"),
	}
}

func (c *CachedDuplicateChecker) cacheKey(sku string) string {
	return fmt.Sprintf("ingestion:exists:%s:%s", c.tenantID, sku)
}

// ExistsBySKU answers from cache when possible, otherwise asks the catalog
// and caches the answer. Only definitive answers are cached; check failures
// are never stored.
func (c *CachedDuplicateChecker) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, c.cacheKey(sku)).Result(); err == nil {
			return cached == "1", nil
		}
	}

	exists, err := c.inner.ExistsBySKU(ctx, sku)
	if err != nil {
		return false, err
	}

	if c.redis != nil {
		value := "0"
		if exists {
			value = "1"
		}
		if err := c.redis.Set(ctx, c.cacheKey(sku), value, existenceCacheTTL).Err(); err != nil {
			c.logger.WithError(err).Debug("Failed to cache existence check result")
		}
	}
	return exists, nil
}
