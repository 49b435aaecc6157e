// Package cache provides read-through caching over memory or Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/metrics"
)

// Store is a byte-oriented key value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache namespaces keys and collapses concurrent loads of the same key.
type Cache struct {
	store  Store
	prefix string
	group  singleflight.Group
}

// Default is used by the services. It starts out as an in-memory cache so
// tests and the CLI commands work without Setup.
var Default = New(NewMemoryStore(nil), "")

func New(store Store, prefix string) *Cache {
	return &Cache{store: store, prefix: prefix}
}

// Setup replaces Default with a Redis-backed cache when url is set.
func Setup(url, prefix string) error {
	if url == "" {
		Default = New(NewMemoryStore(nil), prefix)
		logger.Info("cache: using in-memory store")
		return nil
	}

	store, err := NewRedisStore(url)
	if err != nil {
		return err
	}
	Default = New(store, prefix)
	logger.Infof("cache: using redis store with prefix %q", prefix)
	return nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Forget removes the given keys.
func (c *Cache) Forget(ctx context.Context, keys ...string) {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.store.Delete(ctx, full...); err != nil {
		logger.Warnf("cache: delete %v: %v", keys, err)
	}
}

// ForgetPrefix removes every key starting with prefix.
func (c *Cache) ForgetPrefix(ctx context.Context, prefix string) {
	if err := c.store.DeletePrefix(ctx, c.key(prefix)); err != nil {
		logger.Warnf("cache: delete prefix %s: %v", prefix, err)
	}
}

// Remember returns the cached value for key or stores the result of load.
// Backend failures degrade to calling load directly.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T
	full := c.key(key)

	raw, ok, err := c.store.Get(ctx, full)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		logger.Warnf("cache: get %s: %v", key, err)
	case ok:
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return out, nil
		}
		logger.Warnf("cache: discard undecodable value for %s", key)
	default:
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	v, err, _ := c.group.Do(full, func() (any, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode cache value: %w", err)
		}
		if err := c.store.Set(ctx, full, encoded, ttl); err != nil {
			logger.Warnf("cache: set %s: %v", key, err)
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the backend when it supports it.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
