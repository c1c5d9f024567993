// Package cache provides the Redis-backed memoization layer for derived
// analytics. Aggregates are pure functions of (records snapshot, range), so
// cached results stay valid until the snapshot version moves; writes to
// tasks or sessions bump the version, implicitly dropping every cached
// aggregate for that user.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a cached aggregate can live even if the
// snapshot version never moves.
const DefaultTTL = 15 * time.Minute

// AnalyticsCache memoizes computed aggregates keyed on user, snapshot
// version and a caller-supplied request key (range plus parameters).
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates an analytics cache from a Redis URL.
func New(redisURL string) (*AnalyticsCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &AnalyticsCache{client: client, ttl: DefaultTTL}, nil
}

// NewWithClient wraps an existing client, sharing the rate limiter's
// connection pool.
func NewWithClient(client *redis.Client) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: DefaultTTL}
}

// Close closes the underlying connection.
func (c *AnalyticsCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *AnalyticsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Version returns the user's current snapshot version. A missing version
// reads as zero, which is a valid generation.
func (c *AnalyticsCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot version: %w", err)
	}
	return v, nil
}

// BumpVersion advances the user's snapshot version, invalidating every
// cached aggregate computed against earlier generations.
func (c *AnalyticsCache) BumpVersion(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to bump snapshot version: %w", err)
	}
	return nil
}

// Get loads a cached aggregate into out. The boolean reports a hit.
func (c *AnalyticsCache) Get(ctx context.Context, userID uuid.UUID, version int64, requestKey string, out any) (bool, error) {
	raw, err := c.client.Get(ctx, resultKey(userID, version, requestKey)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached aggregate: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes.
		return false, nil
	}
	return true, nil
}

// Set stores a computed aggregate for the given generation.
func (c *AnalyticsCache) Set(ctx context.Context, userID uuid.UUID, version int64, requestKey string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}
	if err := c.client.Set(ctx, resultKey(userID, version, requestKey), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	return nil
}

func versionKey(userID uuid.UUID) string {
	return "analytics:ver:" + userID.String()
}

func resultKey(userID uuid.UUID, version int64, requestKey string) string {
	return fmt.Sprintf("analytics:agg:%s:%d:%s", userID, version, requestKey)
}
