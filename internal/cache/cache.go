// Package cache keeps the latest ScoringResult per asset in Redis so the
// HTTP surface and downstream consumers can read scores without hitting the
// database on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/protocolchecker/riskframe/internal/engine"
)

// ErrMiss is returned when no cached result exists for a symbol.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "riskframe:latest:"

// ResultCache stores the latest scoring result per symbol with a TTL.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResultCache wraps a Redis client. TTL <= 0 disables expiry.
func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl}
}

// Set stores the result under the asset's symbol.
func (c *ResultCache) Set(ctx context.Context, result *engine.ScoringResult) error {
	if result.Symbol == "" {
		return fmt.Errorf("cannot cache result without symbol")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scoring result: %w", err)
	}

	if err := c.rdb.Set(ctx, keyPrefix+result.Symbol, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result for %s: %w", result.Symbol, err)
	}
	return nil
}

// Get returns the cached result for a symbol, or ErrMiss.
func (c *ResultCache) Get(ctx context.Context, symbol string) (*engine.ScoringResult, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+symbol).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cached result for %s: %w", symbol, err)
	}

	var result engine.ScoringResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result for %s: %w", symbol, err)
	}
	return &result, nil
}
