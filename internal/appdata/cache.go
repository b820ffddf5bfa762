package appdata

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	key   Key
	value any
}

// Cache holds query results by Key. Concurrent misses on the same key share a
// single fetch, and a fetch that overlaps an invalidation of its root key
// never writes its result back.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	// gens counts invalidations per root key; epoch counts invalidations of
	// the empty key, which covers every root.
	gens  map[string]uint64
	epoch uint64

	group     singleflight.Group
	listeners []func([]Key)
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
	}
}

func (c *Cache) Get(k Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k.String()]
	return e.value, ok
}

func (c *Cache) Set(k Key, v any) {
	c.mu.Lock()
	c.entries[k.String()] = entry{key: k, value: v}
	c.mu.Unlock()
}

// Modify replaces the value under k with fn(value). Missing keys are left
// alone.
func (c *Cache) Modify(k Key, fn func(any) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k.String()]
	if !ok {
		return
	}
	e.value = fn(e.value)
	c.entries[k.String()] = e
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate drops every entry under each of keys and notifies listeners.
func (c *Cache) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}
	c.mu.Lock()
	for s, e := range c.entries {
		for _, k := range keys {
			if e.key.HasPrefix(k) {
				delete(c.entries, s)
				break
			}
		}
	}
	for _, k := range keys {
		if len(k) == 0 {
			c.epoch++
			continue
		}
		c.gens[k[0]]++
	}
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(keys)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.Invalidate(RootKeys...)
}

// OnInvalidate registers fn to be called after every invalidation.
func (c *Cache) OnInvalidate(fn func(keys []Key)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot records the current state of keys, including their absence.
type Snapshot map[string]*entry

func (c *Cache) Snapshot(keys ...Key) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(Snapshot, len(keys))
	for _, k := range keys {
		if e, ok := c.entries[k.String()]; ok {
			snap[k.String()] = &e
		} else {
			snap[k.String()] = nil
		}
	}
	return snap
}

// Restore puts every key of snap back to its recorded state.
func (c *Cache) Restore(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for s, e := range snap {
		if e == nil {
			delete(c.entries, s)
			continue
		}
		c.entries[s] = *e
	}
}

// generation changes whenever a key sharing k's root is invalidated.
func (c *Cache) generation(k Key) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationLocked(k)
}

func (c *Cache) generationLocked(k Key) uint64 {
	if len(k) == 0 {
		return c.epoch
	}
	return c.epoch + c.gens[k[0]]
}

// setIfCurrent stores v unless k's root was invalidated after gen was read.
func (c *Cache) setIfCurrent(k Key, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(k) != gen {
		return
	}
	c.entries[k.String()] = entry{key: k, value: v}
}

// Fetch returns the cached value for k, calling fetch on a miss.
func Fetch[T any](ctx context.Context, c *Cache, k Key, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(k); ok {
		return v.(T), nil
	}

	gen := c.generation(k)
	// Callers that arrive after an invalidation must not join a fetch that
	// started before it.
	flight := fmt.Sprintf("%s@%d", k, gen)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.setIfCurrent(k, v, gen)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Optimistic runs call with a speculative cache update in place. apply
// writes the guess into the cache; if call fails the entries under keys are
// rolled back to their prior state. Either way keys are invalidated once
// call returns.
func Optimistic[T any](ctx context.Context, c *Cache, keys []Key, apply func(*Cache), call func(context.Context) (T, error)) (T, error) {
	snap := c.Snapshot(keys...)
	apply(c)

	res, err := call(ctx)
	if err != nil {
		c.Restore(snap)
	}
	c.Invalidate(keys...)
	return res, err
}
