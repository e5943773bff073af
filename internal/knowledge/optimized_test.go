package knowledge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/models"
)

func newOptimized(t *testing.T, ttlMillis int) (*Store, *OptimizedStore) {
	t.Helper()
	base := NewStore()
	opt := NewOptimizedStore(base, OptimizedStoreConfig{
		CacheCapacity:  4,
		CacheTTLMillis: ttlMillis,
		BatchSize:      3,
	})
	return base, opt
}

func TestOptimizedReadThroughAndHit(t *testing.T) {
	_, opt := newOptimized(t, 60_000)
	opt.AddOrUpdateRecordFromNode(node("root.1", models.StatusDone, "root"))

	first := opt.GetRecord("root.1")
	require.NotNil(t, first)
	second := opt.GetRecord("root.1")
	require.NotNil(t, second)

	assert.Equal(t, int64(1), opt.CacheHits(), "second read should hit the cache")
}

func TestOptimizedWriteInvalidatesCache(t *testing.T) {
	// The cache correctness contract: a read immediately after a write must
	// return the updated record regardless of TTL.
	_, opt := newOptimized(t, 60_000)
	n := node("root.1", models.StatusReady, "root")
	opt.AddOrUpdateRecordFromNode(n)
	require.Equal(t, models.StatusReady, opt.GetRecord("root.1").Status)

	n.Status = models.StatusDone
	opt.AddOrUpdateRecordFromNode(n)

	got := opt.GetRecord("root.1")
	require.NotNil(t, got)
	assert.Equal(t, models.StatusDone, got.Status, "read after write returned stale data")
}

func TestOptimizedChildListInvalidatedByChildWrite(t *testing.T) {
	_, opt := newOptimized(t, 60_000)
	opt.AddOrUpdateRecordFromNode(node("root", models.StatusPlanDone, "", "root.1", "root.2"))
	opt.AddOrUpdateRecordFromNode(node("root.1", models.StatusReady, "root"))

	// Prime the child-list cache, then complete a child.
	require.Len(t, opt.GetChildRecords("root"), 1)
	opt.AddOrUpdateRecordFromNode(node("root.2", models.StatusDone, "root"))

	children := opt.GetChildRecords("root")
	require.Len(t, children, 2, "child-list cache served a stale list")
}

func TestOptimizedTTLExpiry(t *testing.T) {
	base, opt := newOptimized(t, 1)
	opt.AddOrUpdateRecordFromNode(node("root.1", models.StatusDone, "root"))

	_ = opt.GetRecord("root.1") // populate
	time.Sleep(5 * time.Millisecond)
	_ = opt.GetRecord("root.1") // expired, falls through

	assert.Equal(t, int64(0), opt.CacheHits())
	assert.NotNil(t, base.GetRecord("root.1"))
}

func TestOptimizedDisabledFallsThrough(t *testing.T) {
	base, opt := newOptimized(t, 60_000)
	opt.SetReadCacheEnabled(false)

	n := node("root.1", models.StatusReady, "root")
	opt.AddOrUpdateRecordFromNode(n)
	_ = opt.GetRecord("root.1")

	// Mutate through the base store directly; the disabled wrapper must see
	// it with zero staleness.
	n.Status = models.StatusDone
	base.AddOrUpdateRecordFromNode(n)

	got := opt.GetRecord("root.1")
	require.NotNil(t, got)
	assert.Equal(t, models.StatusDone, got.Status)
	assert.Equal(t, int64(0), opt.CacheHits())
}

func TestOptimizedLRUEviction(t *testing.T) {
	_, opt := newOptimized(t, 60_000) // capacity 4
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		opt.AddOrUpdateRecordFromNode(node(id, models.StatusDone, ""))
		_ = opt.GetRecord(id)
	}
	// Five distinct entries through a capacity-4 cache: the oldest was
	// evicted, but every read still returns correct data.
	for _, id := range ids {
		require.NotNil(t, opt.GetRecord(id))
	}
}

func TestWriteBufferBatchesAndFlushes(t *testing.T) {
	base, opt := newOptimized(t, 60_000) // batch size 3
	buf := opt.NewWriteBuffer()

	buf.Add(node("root.1", models.StatusDone, "root"))
	buf.Add(node("root.2", models.StatusDone, "root"))
	assert.Equal(t, 2, buf.Pending())
	assert.Nil(t, base.GetRecord("root.1"), "buffered write applied early")

	// Third write reaches the batch size and triggers the flush.
	buf.Add(node("root.3", models.StatusDone, "root"))
	assert.Equal(t, 0, buf.Pending())
	for _, id := range []string{"root.1", "root.2", "root.3"} {
		require.NotNil(t, base.GetRecord(id), "record %s missing after batch flush", id)
	}
}

func TestWriteBufferManualFlushAndInvalidation(t *testing.T) {
	_, opt := newOptimized(t, 60_000)
	n := node("root.1", models.StatusReady, "root")
	opt.AddOrUpdateRecordFromNode(n)
	require.Equal(t, models.StatusReady, opt.GetRecord("root.1").Status) // prime cache

	buf := opt.NewWriteBuffer()
	n.Status = models.StatusDone
	buf.Add(n)
	buf.Flush()

	assert.Equal(t, models.StatusDone, opt.GetRecord("root.1").Status, "flush did not invalidate the cached record")
}

func TestWriteBufferDisabledWritesThrough(t *testing.T) {
	base, opt := newOptimized(t, 60_000)
	opt.SetWriteBufferingEnabled(false)

	buf := opt.NewWriteBuffer()
	buf.Add(node("root.1", models.StatusDone, "root"))
	require.NotNil(t, base.GetRecord("root.1"), "disabled buffering must write through immediately")
}
