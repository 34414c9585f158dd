package cache

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/elys-network/vaultengine/internal/logger"
)

// Loader produces the value for a key on a miss.
type Loader func() (any, error)

type Config struct {
	MaxEntries int64
}

func DefaultConfig() Config {
	return Config{MaxEntries: 10_000}
}

type Option func(*Cache)

// WithObserver reports every Read as a hit or a miss, e.g. to metrics.
func WithObserver(fn func(hit bool)) Option {
	return func(c *Cache) {
		c.observe = fn
	}
}

// Cache memoizes read results until they are invalidated. It never owns data: values are whatever the
// loader returned and must be treated as read-only by every caller.
//
// Each key carries a generation. A load records the generation it started under and stores its result
// only if no invalidation happened in the meantime, so a value computed before a write can never be
// published after that write's invalidation.
type Cache struct {
	store *ristretto.Cache
	group singleflight.Group

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
	keys  map[string]struct{}

	hits    atomic.Uint64
	misses  atomic.Uint64
	observe func(hit bool)
	log     zerolog.Logger
}

func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.MaxEntries * 10,
		MaxCost:            cfg.MaxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	c := &Cache{
		store: store,
		gens:  make(map[string]uint64),
		keys:  make(map[string]struct{}),
		log:   logger.GetForComponent("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Read returns the cached value for key, or runs loader, caches its result and returns it.
// Concurrent misses on the same key share one loader call. Loader errors are not cached.
func (c *Cache) Read(key string, loader Loader) (any, error) {
	if value, ok := c.store.Get(key); ok {
		c.record(true)
		return value, nil
	}
	c.record(false)

	gen := c.begin(key)
	value, err, _ := c.group.Do(flightKey(key, gen), func() (any, error) {
		value, err := loader()
		if err != nil {
			return nil, err
		}
		c.publish(key, gen, value)
		return value, nil
	})
	return value, err
}

// Read is the typed form of Cache.Read.
func Read[T any](c *Cache, key string, loader func() (T, error)) (T, error) {
	value, err := c.Read(key, func() (any, error) { return loader() })
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s holds %T", key, value)
	}
	return typed, nil
}

// Invalidate drops the given keys. The next Read of each runs its loader.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.dropLocked(key)
	}
}

// InvalidatePrefix drops every key that starts with prefix, including loads still in flight.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.keys {
		if strings.HasPrefix(key, prefix) {
			c.dropLocked(key)
		}
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.gens = make(map[string]uint64)
	c.keys = make(map[string]struct{})
	c.store.Clear()
	c.log.Debug().Uint64("epoch", c.epoch).Msg("Cache cleared")
}

// Stats returns the hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) Close() {
	c.store.Close()
}

type generation struct {
	epoch uint64
	key   uint64
}

func (c *Cache) begin(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = struct{}{}
	return generation{epoch: c.epoch, key: c.gens[key]}
}

func (c *Cache) publish(key string, gen generation, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != gen.epoch || c.gens[key] != gen.key {
		c.log.Debug().Str("key", key).Msg("Discarding load that raced with an invalidation")
		return
	}
	c.store.Set(key, value, 1)
	c.store.Wait()
}

func (c *Cache) dropLocked(key string) {
	c.gens[key]++
	delete(c.keys, key)
	c.store.Del(key)
}

func (c *Cache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observe != nil {
		c.observe(hit)
	}
}

func flightKey(key string, gen generation) string {
	return key + "@" + strconv.FormatUint(gen.epoch, 10) + "." + strconv.FormatUint(gen.key, 10)
}
