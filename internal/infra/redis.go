package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Socket timeouts stay below the two second idempotency lookup budget.
const (
	cacheDialTimeout = time.Second
	cacheIOTimeout   = 500 * time.Millisecond
	cachePoolSize    = 16
	cachePingTimeout = 3 * time.Second
)

// ErrCacheURL is returned when no idempotency cache address is configured.
var ErrCacheURL = errors.New("idempotency cache url is required")

// CacheOptions parses url and applies the cache's timeouts and pool bounds.
// Values given explicitly in the url are kept.
func CacheOptions(url string) (*redis.Options, error) {
	if url == "" {
		return nil, ErrCacheURL
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = cacheDialTimeout
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = cacheIOTimeout
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = cacheIOTimeout
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = cachePoolSize
	}
	return opt, nil
}

// NewRedisClient opens the idempotency and rate limit cache and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := CacheOptions(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("idempotency cache %s unreachable: %w", opt.Addr, err)
	}
	return client, nil
}
