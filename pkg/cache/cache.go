// Copyright (C) 2025 Joshua Goldstein

// Package cache keeps recently fetched backend results for a short time and
// collapses concurrent fetches of the same key into a single call.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value   any
	expires time.Time
}

// Cache is a TTL keyed store. Errors are never cached.
type Cache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]entry
	inflight map[string]int
	gen      uint64
	group    singleflight.Group
	now      func() time.Time
}

// New creates a cache. A non-positive ttl disables storage but still
// collapses concurrent fetches.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:      ttl,
		items:    make(map[string]entry),
		inflight: make(map[string]int),
		now:      time.Now,
	}
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// Key joins key parts with "|". Backslashes and separators inside a part are
// escaped so distinct part lists never share a key.
func Key(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, "|")
}

// Get returns a live value for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache) Set(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Do returns the cached value for key or calls fn once, even when several
// goroutines ask for the same key at the same time. fn runs with a context
// detached from the caller's cancellation so that one abandoned request does
// not fail the others waiting on it. A result is not stored when an
// Invalidate ran while fn was in flight.
func (c *Cache) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		gen := c.begin(key)
		v, err := fn(context.WithoutCancel(ctx))
		c.end(key, gen, v, err == nil)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Cache) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key]++
	return c.gen
}

// end stores v when store is set and no invalidation happened since begin.
func (c *Cache) end(key string, gen uint64, v any, store bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key]--; c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
	if store && c.gen == gen && c.ttl > 0 {
		c.items[key] = entry{value: v, expires: c.now().Add(c.ttl)}
	}
}

// Invalidate drops every entry whose key starts with prefix and returns how
// many were removed. Fetches in flight for matching keys are detached, so
// later callers start a fresh fetch instead of joining the old one.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	for k := range c.inflight {
		if strings.HasPrefix(k, prefix) {
			c.group.Forget(k)
		}
	}
	return n
}

// Prune drops expired entries.
func (c *Cache) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Fetch is the typed form of Do.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return t, nil
}
