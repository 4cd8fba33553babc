// Package cache keeps the normalized table in memory between requests.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spektr-org/plwdash/loader"
)

// ============================================================================
// TABLE CACHE — One dataset, reloaded after TTL
// ============================================================================
// Concurrent misses share one load. A failed load is returned to every
// waiter and never stored, so the next Get tries again. A load that started
// before an Invalidate still answers its own waiters but is not stored.
// ============================================================================

const tableKey = "table"

// LoadFunc produces a fresh dataset.
type LoadFunc func(ctx context.Context) (*loader.Dataset, error)

// TableCache holds a single dataset for up to ttl.
type TableCache struct {
	store  *gocache.Cache
	group  singleflight.Group
	load   LoadFunc
	ttl    time.Duration
	logger *zap.Logger

	mu  sync.Mutex // guards gen and the store write that depends on it
	gen uint64     // bumped by Invalidate
}

// Option configures a TableCache.
type Option func(*TableCache)

// WithLogger sets the logger for load and refresh events.
func WithLogger(l *zap.Logger) Option {
	return func(c *TableCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a cache around load. A ttl <= 0 keeps the dataset until
// Refresh or Invalidate.
func New(ttl time.Duration, load LoadFunc, opts ...Option) *TableCache {
	expiration := ttl
	if ttl <= 0 {
		expiration = gocache.NoExpiration
	}
	c := &TableCache{
		// No janitor: expiry is checked on read and there is only one key.
		store:  gocache.New(expiration, 0),
		load:   load,
		ttl:    ttl,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached dataset, loading it if absent or expired.
// Cancelling ctx abandons the wait; a shared load already running finishes
// for the other callers.
func (c *TableCache) Get(ctx context.Context) (*loader.Dataset, error) {
	if v, ok := c.store.Get(tableKey); ok {
		return v.(*loader.Dataset), nil
	}

	ch := c.group.DoChan(tableKey, func() (interface{}, error) {
		// Another caller may have stored it between our miss and this call.
		if v, ok := c.store.Get(tableKey); ok {
			return v, nil
		}
		gen := c.generation()
		start := time.Now()
		ds, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			c.logger.Error("table load failed", zap.Error(err))
			return nil, err
		}
		if !c.storeIfCurrent(gen, ds) {
			c.logger.Info("table load superseded by refresh, not cached",
				zap.Duration("duration", time.Since(start)))
			return ds, nil
		}
		c.logger.Info("table loaded",
			zap.Int("rows", len(ds.Records)),
			zap.Duration("ttl", c.ttl),
			zap.Duration("duration", time.Since(start)),
		)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load table: %w", res.Err)
		}
		return res.Val.(*loader.Dataset), nil
	}
}

// Refresh drops the cached dataset and loads a new one.
func (c *TableCache) Refresh(ctx context.Context) (*loader.Dataset, error) {
	c.Invalidate()
	c.logger.Info("table refresh requested")
	return c.Get(ctx)
}

// Invalidate drops the cached dataset. The next Get reloads, and loads
// already in flight no longer populate the cache.
func (c *TableCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.store.Delete(tableKey)
	c.mu.Unlock()
	c.group.Forget(tableKey)
}

func (c *TableCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// storeIfCurrent caches ds unless an Invalidate happened since gen was read.
func (c *TableCache) storeIfCurrent(gen uint64, ds *loader.Dataset) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store.SetDefault(tableKey, ds)
	return true
}

// LoadedAt reports when the cached dataset was loaded.
// ok is false when nothing is cached.
func (c *TableCache) LoadedAt() (t time.Time, ok bool) {
	v, found := c.store.Get(tableKey)
	if !found {
		return time.Time{}, false
	}
	return v.(*loader.Dataset).LoadedAt, true
}

// TTL returns the configured time-to-live.
func (c *TableCache) TTL() time.Duration { return c.ttl }
