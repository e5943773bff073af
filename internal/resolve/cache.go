package resolve

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/models"
)

// cacheKey identifies one context build. The store checksum is part of the
// key, so any record mutation naturally invalidates all prior entries.
type cacheKey struct {
	TaskID   string
	Layer    int
	Checksum string
}

// CachedBuilder wraps the whole context-build operation in a TTL+LRU cache.
type CachedBuilder struct {
	builder  *Builder
	store    knowledge.Reader
	capacity int
	ttl      time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	order   *list.List
	entries map[cacheKey]*list.Element

	hits   atomic.Int64
	misses atomic.Int64
}

type buildCacheEntry struct {
	key       cacheKey
	input     models.AgentTaskInput
	expiresAt time.Time
}

// NewCachedBuilder wraps a builder with a cache of the given capacity and TTL.
func NewCachedBuilder(builder *Builder, store knowledge.Reader, capacity, ttlMillis int, logger *slog.Logger) *CachedBuilder {
	if capacity <= 0 {
		capacity = 64
	}
	if ttlMillis <= 0 {
		ttlMillis = 5000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedBuilder{
		builder:  builder,
		store:    store,
		capacity: capacity,
		ttl:      time.Duration(ttlMillis) * time.Millisecond,
		logger:   logger,
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
	}
}

// Hits returns the number of cache hits.
func (c *CachedBuilder) Hits() int64 { return c.hits.Load() }

// Misses returns the number of cache misses.
func (c *CachedBuilder) Misses() int64 { return c.misses.Load() }

// ResolveContextForAgent returns a cached build when the task, its layer, and
// the store contents are unchanged, and delegates to the builder otherwise.
func (c *CachedBuilder) ResolveContextForAgent(ctx context.Context, req ResolveRequest) models.AgentTaskInput {
	layer := 0
	if rec := c.store.GetRecord(req.TaskID); rec != nil {
		layer = rec.Layer
	}
	key := cacheKey{TaskID: req.TaskID, Layer: layer, Checksum: c.store.Checksum()}

	if input, ok := c.lookup(key); ok {
		c.hits.Add(1)
		c.logger.Debug("context cache hit", "task_id", req.TaskID, "layer", layer)
		return input
	}
	c.misses.Add(1)

	input := c.builder.ResolveContextForAgent(ctx, req)
	c.insert(key, input)
	return input
}

func (c *CachedBuilder) lookup(key cacheKey) (models.AgentTaskInput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return models.AgentTaskInput{}, false
	}
	entry := el.Value.(*buildCacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return models.AgentTaskInput{}, false
	}
	c.order.MoveToFront(el)
	return entry.input, true
}

func (c *CachedBuilder) insert(key cacheKey, input models.AgentTaskInput) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*buildCacheEntry).key)
	}
	c.entries[key] = c.order.PushFront(&buildCacheEntry{
		key:       key,
		input:     input,
		expiresAt: time.Now().Add(c.ttl),
	})
}
