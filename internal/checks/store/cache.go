package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/sentinel"
)

const resultKeyPrefix = "bgv:result:"

// ResultCache keeps the latest ComparisonResult per Check in Redis so
// dashboards can read it without touching the primary store.
type ResultCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewResultCache(client redis.UniversalClient, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func (c *ResultCache) Put(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached result: %w", err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+checkID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}
	return nil
}

// Get returns sentinel.ErrNotFound on a cache miss.
func (c *ResultCache) Get(ctx context.Context, checkID id.CheckID) (*cmodels.ComparisonResult, error) {
	payload, err := c.client.Get(ctx, resultKeyPrefix+checkID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cached result: %w", err)
	}
	var result cmodels.ComparisonResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal cached result: %w", err)
	}
	return &result, nil
}

func (c *ResultCache) Invalidate(ctx context.Context, checkID id.CheckID) error {
	return c.client.Del(ctx, resultKeyPrefix+checkID.String()).Err()
}
