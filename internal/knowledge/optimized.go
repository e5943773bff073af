package knowledge

import (
	"container/list"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/planweave/planweave/models"
)

// childListKey prefixes cache keys for child-list queries so they cannot
// collide with record keys.
const childListKeyPrefix = "children_"

// OptimizedStore wraps a Store with an LRU+TTL read cache and optional write
// buffering. It is a decorator, not a subclass: it holds the base store and
// implements the same RecordStore contract. Optimizations are toggleable at
// runtime; when disabled every operation falls through to the base store with
// zero staleness. On any cache doubt the authoritative store wins.
type OptimizedStore struct {
	base *Store

	readCacheEnabled atomic.Bool
	writeBufEnabled  atomic.Bool

	cacheMu  sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	entries  map[string]*list.Element

	batchSize int
	logger    *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key       string
	record    *models.TaskRecord   // set for record keys
	children  []*models.TaskRecord // set for child-list keys
	expiresAt time.Time
}

// OptimizedStoreConfig controls cache capacity, entry TTL, and the write
// buffer batch size.
type OptimizedStoreConfig struct {
	CacheCapacity  int
	CacheTTLMillis int
	BatchSize      int
	Logger         *slog.Logger
}

// NewOptimizedStore wraps the base store. Both optimizations start enabled.
func NewOptimizedStore(base *Store, cfg OptimizedStoreConfig) *OptimizedStore {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 256
	}
	if cfg.CacheTTLMillis <= 0 {
		cfg.CacheTTLMillis = 2000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	o := &OptimizedStore{
		base:      base,
		capacity:  cfg.CacheCapacity,
		ttl:       time.Duration(cfg.CacheTTLMillis) * time.Millisecond,
		order:     list.New(),
		entries:   make(map[string]*list.Element),
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
	o.readCacheEnabled.Store(true)
	o.writeBufEnabled.Store(true)
	return o
}

// SetReadCacheEnabled toggles the read cache. Disabling drops all entries so
// a later re-enable cannot serve pre-toggle state.
func (o *OptimizedStore) SetReadCacheEnabled(enabled bool) {
	o.readCacheEnabled.Store(enabled)
	if !enabled {
		o.cacheMu.Lock()
		o.order.Init()
		o.entries = make(map[string]*list.Element)
		o.cacheMu.Unlock()
	}
}

// SetWriteBufferingEnabled toggles write buffering for newly created buffers.
func (o *OptimizedStore) SetWriteBufferingEnabled(enabled bool) {
	o.writeBufEnabled.Store(enabled)
}

// CacheHits returns the number of read-cache hits since creation.
func (o *OptimizedStore) CacheHits() int64 { return o.hits.Load() }

// CacheMisses returns the number of read-cache misses since creation.
func (o *OptimizedStore) CacheMisses() int64 { return o.misses.Load() }

// GetRecord checks the cache first; on a fresh hit the entry moves to the
// most-recently-used position. Misses and expiries fall through to the base
// store and repopulate the cache.
func (o *OptimizedStore) GetRecord(taskID string) *models.TaskRecord {
	if !o.readCacheEnabled.Load() {
		return o.base.GetRecord(taskID)
	}
	if e, ok := o.lookup(taskID); ok {
		return e.record.Clone()
	}
	rec := o.base.GetRecord(taskID)
	if rec != nil {
		o.insert(&cacheEntry{key: taskID, record: rec.Clone()})
	}
	return rec
}

// GetChildRecords caches child lists under a "children_"-prefixed key.
func (o *OptimizedStore) GetChildRecords(parentTaskID string) []*models.TaskRecord {
	if !o.readCacheEnabled.Load() {
		return o.base.GetChildRecords(parentTaskID)
	}
	key := childListKeyPrefix + parentTaskID
	if e, ok := o.lookup(key); ok {
		out := make([]*models.TaskRecord, len(e.children))
		for i, c := range e.children {
			out[i] = c.Clone()
		}
		return out
	}
	children := o.base.GetChildRecords(parentTaskID)
	if children != nil {
		cached := make([]*models.TaskRecord, len(children))
		for i, c := range children {
			cached[i] = c.Clone()
		}
		o.insert(&cacheEntry{key: key, children: cached})
	}
	return children
}

// AddOrUpdateRecordFromNode writes through to the base store and invalidates
// every cache entry the write could have made stale: the record itself, its
// own child list, and the parent's child list.
func (o *OptimizedStore) AddOrUpdateRecordFromNode(node *models.TaskNode) {
	if node == nil {
		return
	}
	o.base.AddOrUpdateRecordFromNode(node)
	o.invalidateForNode(node)
}

// Clear empties the base store and the cache.
func (o *OptimizedStore) Clear() {
	o.base.Clear()
	o.cacheMu.Lock()
	o.order.Init()
	o.entries = make(map[string]*list.Element)
	o.cacheMu.Unlock()
}

// Checksum always reflects the authoritative store.
func (o *OptimizedStore) Checksum() string { return o.base.Checksum() }

// NewWriteBuffer returns a buffer for one calling goroutine. Writes accumulate
// up to the batch size and are then applied as a single batch under one
// critical section; Flush forces immediate application. Buffers must not be
// shared across goroutines. When write buffering is disabled the buffer
// writes through immediately.
func (o *OptimizedStore) NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{store: o, limit: o.batchSize}
}

// WriteBuffer batches node upserts for a single caller.
type WriteBuffer struct {
	store   *OptimizedStore
	limit   int
	pending []*models.TaskNode
}

// Add queues an upsert, flushing automatically once the batch is full.
func (b *WriteBuffer) Add(node *models.TaskNode) {
	if node == nil {
		return
	}
	if !b.store.writeBufEnabled.Load() {
		b.store.AddOrUpdateRecordFromNode(node)
		return
	}
	b.pending = append(b.pending, node)
	if len(b.pending) >= b.limit {
		b.Flush()
	}
}

// Flush applies all pending writes as one batch. Readers see either the
// pre-flush state or the fully flushed state, never a partial batch.
func (b *WriteBuffer) Flush() {
	if len(b.pending) == 0 {
		return
	}
	batch := b.pending
	b.pending = nil

	b.store.base.mu.Lock()
	for _, node := range batch {
		if node.TaskID == "" {
			continue
		}
		b.store.base.records[node.TaskID] = node.ToRecord()
	}
	b.store.base.mu.Unlock()

	for _, node := range batch {
		b.store.invalidateForNode(node)
	}
}

// Pending returns the number of buffered writes.
func (b *WriteBuffer) Pending() int { return len(b.pending) }

func (o *OptimizedStore) invalidateForNode(node *models.TaskNode) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	o.evictKeyLocked(node.TaskID)
	o.evictKeyLocked(childListKeyPrefix + node.TaskID)
	if node.ParentNodeID != nil {
		o.evictKeyLocked(childListKeyPrefix + *node.ParentNodeID)
	}
}

func (o *OptimizedStore) evictKeyLocked(key string) {
	if el, ok := o.entries[key]; ok {
		o.order.Remove(el)
		delete(o.entries, key)
	}
}

func (o *OptimizedStore) lookup(key string) (*cacheEntry, bool) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	el, ok := o.entries[key]
	if !ok {
		o.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		o.order.Remove(el)
		delete(o.entries, key)
		o.misses.Add(1)
		return nil, false
	}
	o.order.MoveToFront(el)
	o.hits.Add(1)
	return entry, true
}

func (o *OptimizedStore) insert(entry *cacheEntry) {
	entry.expiresAt = time.Now().Add(o.ttl)
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	if el, ok := o.entries[entry.key]; ok {
		o.order.Remove(el)
		delete(o.entries, entry.key)
	}
	for len(o.entries) >= o.capacity {
		oldest := o.order.Back()
		if oldest == nil {
			break
		}
		o.order.Remove(oldest)
		delete(o.entries, oldest.Value.(*cacheEntry).key)
	}
	o.entries[entry.key] = o.order.PushFront(entry)
}
