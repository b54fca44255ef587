package balance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKey = "recon:last_summary"

// SummaryCache keeps the most recent batch summary in Redis so the admin
// API can serve it without re-running the batch. A nil client disables
// caching.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: 7 * 24 * time.Hour}
}

func (c *SummaryCache) Store(ctx context.Context, s *BatchSummary) error {
	if c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, summaryKey, data, c.ttl).Err()
}

// Load returns nil when no summary has been stored yet.
func (c *SummaryCache) Load(ctx context.Context) (*BatchSummary, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, summaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s BatchSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
