// Package cache provides a Redis-backed JSON cache for read-through lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "catalog:"
	DefaultTTL    = 5 * time.Minute
)

// Redis stores JSON values under a key prefix with a fixed TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ops    *prometheus.CounterVec
}

// NewRedis wraps client. reg may be nil, in which case nothing is exported.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, reg prometheus.Registerer) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations by kind and result",
		}, []string{"op", "result"}),
	}
	if reg != nil {
		reg.MustRegister(c.ops)
	}
	return c
}

// Get decodes the value at key into dest and reports whether it was present.
func (c *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		c.ops.WithLabelValues("get", "miss").Inc()
		return false, nil
	}
	if err != nil {
		c.ops.WithLabelValues("get", "error").Inc()
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.ops.WithLabelValues("get", "error").Inc()
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	c.ops.WithLabelValues("get", "hit").Inc()
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.ops.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.ops.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	c.ops.WithLabelValues("set", "ok").Inc()
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.ops.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	c.ops.WithLabelValues("delete", "ok").Inc()
	return nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
