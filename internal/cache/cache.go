// Package cache handles Redis caching for computed run summaries. The cache
// is optional: a nil *SummaryCache disables it without branching at call
// sites.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/sim"
)

const defaultTTL = 15 * time.Minute

type SummaryCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	log       *logrus.Entry
}

// New connects to Redis and pings it. An empty URL returns a nil cache,
// which every method treats as a miss.
func New(redisURL string, log *logrus.Logger) (*SummaryCache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	c := &SummaryCache{
		client:    client,
		ttl:       defaultTTL,
		keyPrefix: "vpfm:summary",
		log:       log.WithField("component", "cache"),
	}
	c.log.WithField("ttl", c.ttl).Info("Summary cache initialized")
	return c, nil
}

func (c *SummaryCache) key(scheduleID uint) string {
	return fmt.Sprintf("%s:%d", c.keyPrefix, scheduleID)
}

// Get returns the cached summary or nil on a miss. Errors are logged and
// downgraded to misses so Redis outages never block reads.
func (c *SummaryCache) Get(ctx context.Context, scheduleID uint) *sim.Summary {
	if c == nil {
		return nil
	}
	key := c.key(scheduleID)
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", key).Error("Failed to read summary from cache")
		}
		return nil
	}
	var s sim.Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		c.log.WithError(err).WithField("key", key).Error("Failed to unmarshal cached summary")
		return nil
	}
	return &s
}

// Set stores the summary with the cache TTL.
func (c *SummaryCache) Set(ctx context.Context, s *sim.Summary) {
	if c == nil || s == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		c.log.WithError(err).Error("Failed to marshal summary")
		return
	}
	key := c.key(s.ScheduleID)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Error("Failed to write summary to cache")
	}
}

// Invalidate drops a schedule's cached summary; called after a fresh run
// replaces its rows.
func (c *SummaryCache) Invalidate(ctx context.Context, scheduleID uint) {
	if c == nil {
		return
	}
	key := c.key(scheduleID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Error("Failed to invalidate summary")
	}
}

// Close releases the Redis connection.
func (c *SummaryCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
