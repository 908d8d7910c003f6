package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/metrics"
)

// EntityLoader fetches an entity from the backend.
type EntityLoader func(ctx context.Context, id string) (*model.Entity, error)

// EntityCache is the shared read cache of backend entities. Entries are fresh
// for the configured TTL. The wizard patches entries with what it just wrote
// instead of re-reading them, so a cached entity may be ahead of, or behind,
// other writers until it goes stale.
type EntityCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

type cacheEntry struct {
	entity    *model.Entity
	fetchedAt time.Time
}

func NewEntityCache(cfg *config.CacheConfig) *EntityCache {
	ttl := cfg.EntityTTL()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EntityCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached entity while it is fresh.
func (c *EntityCache) Get(id string) (*model.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.entity.Clone(), true
}

// Load returns the fresh cached entity or fetches it. Concurrent loads of one
// id share a single fetch, which runs to completion even when the caller that
// started it goes away.
func (c *EntityCache) Load(ctx context.Context, id string, load EntityLoader) (*model.Entity, error) {
	if e, ok := c.Get(id); ok {
		metrics.EntityCacheLookupsTotal.WithLabelValues("hit").Inc()
		return e, nil
	}
	metrics.EntityCacheLookupsTotal.WithLabelValues("miss").Inc()

	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(id, func() (any, error) {
		entity, err := load(shared, id)
		if err != nil {
			return nil, err
		}
		c.Set(id, entity)
		return entity, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Entity).Clone(), nil
}

// Set stores a freshly fetched entity.
func (c *EntityCache) Set(id string, entity *model.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &cacheEntry{entity: entity.Clone(), fetchedAt: c.now()}
}

// ApplyPatch replaces one step section of a cached entity with the values
// just written. Freshness is not extended. It reports false when the entity
// is not cached.
func (c *EntityCache) ApplyPatch(id string, step model.Step, value any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return false, nil
	}
	patched := e.entity.Clone()
	if err := patched.SetSection(step, value); err != nil {
		return false, err
	}
	e.entity = patched
	metrics.EntityCacheLookupsTotal.WithLabelValues("patch").Inc()
	return true, nil
}

func (c *EntityCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Peek returns the cached entity regardless of freshness.
func (c *EntityCache) Peek(id string) (*model.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.entity.Clone(), true
}
