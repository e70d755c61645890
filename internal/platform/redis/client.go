// Package redis connects the service to the Redis instance backing the
// result cache and the cross-instance check lock.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bgv/internal/platform/config"
)

// Client is the shared go-redis client. Consumers take the embedded
// *redis.Client as a redis.UniversalClient.
type Client struct {
	*redis.Client
}

// Options turns the configured URL and pool settings into go-redis options.
// Zero-valued settings keep the go-redis defaults.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.ClientName = "bgv"
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = orDefault(cfg.DialTimeout, opts.DialTimeout)
	opts.ReadTimeout = orDefault(cfg.ReadTimeout, opts.ReadTimeout)
	opts.WriteTimeout = orDefault(cfg.WriteTimeout, opts.WriteTimeout)
	return opts, nil
}

func orDefault(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

// New dials Redis and verifies the connection. A nil client and nil error
// mean Redis is not configured; callers fall back to in-process locking and
// no result cache.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb}, nil
}

// Health reports whether Redis answers a PING.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
