package resolve

import (
	"context"
	"log/slog"
	"testing"

	"github.com/planweave/planweave/models"
)

func TestCachedBuilderHitsOnUnchangedStore(t *testing.T) {
	parent := planNode("root", models.StatusDone, "", "root.1")
	parent.Result = "the plan"
	store := buildStore(parent, testNode("root.1", models.TaskTypeWrite, models.StatusReady, "root"))

	cached := NewCachedBuilder(NewBuilder(store, testPolicy(), slog.Default()), store, 8, 60_000, slog.Default())
	req := ResolveRequest{TaskID: "root.1", TaskType: models.TaskTypeWrite}

	first := cached.ResolveContextForAgent(context.Background(), req)
	second := cached.ResolveContextForAgent(context.Background(), req)

	if cached.Hits() != 1 || cached.Misses() != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", cached.Hits(), cached.Misses())
	}
	if len(first.RelevantContextItems) != len(second.RelevantContextItems) {
		t.Error("cached result differs from computed result")
	}
}

func TestCachedBuilderMissesAfterStoreWrite(t *testing.T) {
	parent := planNode("root", models.StatusDone, "", "root.1", "root.2")
	parent.Result = "the plan"
	cur := testNode("root.2", models.TaskTypeWrite, models.StatusReady, "root")
	store := buildStore(parent, testNode("root.1", models.TaskTypeWrite, models.StatusReady, "root"), cur)

	cached := NewCachedBuilder(NewBuilder(store, testPolicy(), slog.Default()), store, 8, 60_000, slog.Default())
	req := ResolveRequest{TaskID: "root.2", TaskType: models.TaskTypeWrite}

	before := cached.ResolveContextForAgent(context.Background(), req)
	if len(before.RelevantContextItems) != 1 { // parent only
		t.Fatalf("precondition: got %d items, want 1", len(before.RelevantContextItems))
	}

	// Completing the sibling changes the store checksum; the next resolve
	// must recompute and pick the sibling up.
	sibling := testNode("root.1", models.TaskTypeWrite, models.StatusDone, "root")
	sibling.Result = "sibling output"
	store.AddOrUpdateRecordFromNode(sibling)

	after := cached.ResolveContextForAgent(context.Background(), req)
	if len(after.RelevantContextItems) != 2 {
		t.Errorf("stale context served after store write: %d items", len(after.RelevantContextItems))
	}
	if cached.Hits() != 0 {
		t.Errorf("hits = %d, want 0", cached.Hits())
	}
}
