package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/neighborly-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// SummaryCache stores serialized review summaries in one hash per business,
// with one field per query variant, so a write can drop every variant at once.
// Each business also has a version counter that only moves forward; readers
// put it in their field names so a summary computed before an invalidation
// is never served after it.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(businessID uint) string {
	return fmt.Sprintf("review_summary:%d", businessID)
}

func summaryVersionKey(businessID uint) string {
	return fmt.Sprintf("review_summary_version:%d", businessID)
}

// Version returns the invalidation counter of the business, zero until the
// first invalidation.
func (c *SummaryCache) Version(ctx context.Context, businessID uint) (int64, error) {
	version, err := c.client.Get(ctx, summaryVersionKey(businessID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		logger.Error("Failed to read review summary version", err, map[string]interface{}{
			"business_id": businessID,
		})
		return 0, err
	}
	return version, nil
}

// Get returns the cached value for field; ok is false on a miss.
func (c *SummaryCache) Get(ctx context.Context, businessID uint, field string) ([]byte, bool, error) {
	val, err := c.client.HGet(ctx, summaryKey(businessID), field).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to read review summary cache", err, map[string]interface{}{
			"business_id": businessID,
			"field":       field,
		})
		return nil, false, err
	}
	return val, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, businessID uint, field string, value []byte) error {
	key := summaryKey(businessID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to write review summary cache", err, map[string]interface{}{
			"business_id": businessID,
			"field":       field,
		})
		return err
	}
	return nil
}

// Invalidate bumps the version and drops every cached summary of the business.
func (c *SummaryCache) Invalidate(ctx context.Context, businessID uint) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, summaryVersionKey(businessID))
	pipe.Del(ctx, summaryKey(businessID))
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to invalidate review summary cache", err, map[string]interface{}{
			"business_id": businessID,
		})
		return err
	}
	logger.Debug("Review summary cache invalidated", map[string]interface{}{
		"business_id": businessID,
	})
	return nil
}
