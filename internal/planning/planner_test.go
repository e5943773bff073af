package planning

import (
	"context"
	"log/slog"
	"reflect"
	"testing"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/internal/resolve"
	"github.com/planweave/planweave/models"
)

func buildStore(nodes ...*models.TaskNode) *knowledge.Store {
	s := knowledge.NewStore()
	for _, n := range nodes {
		s.AddOrUpdateRecordFromNode(n)
	}
	return s
}

func testNode(id, taskType string, status models.TaskStatus, parent string, children ...string) *models.TaskNode {
	n := &models.TaskNode{
		TaskID:            id,
		Goal:              "goal for " + id,
		TaskType:          taskType,
		Status:            status,
		PlannedSubTaskIDs: children,
	}
	if parent != "" {
		n.ParentNodeID = &parent
	}
	return n
}

func testPolicy() resolve.SizingPolicy {
	return resolve.NewSizingPolicy(100, 7, 1.2, nil, nil)
}

func TestPlannerInputMissingRecordSentinel(t *testing.T) {
	b := NewPlannerContextBuilder(buildStore(), testPolicy(), slog.Default())
	input := b.ResolveInput(context.Background(), PlannerRequest{TaskID: "ghost", Goal: "plan something"})

	if input.CurrentTaskGoal != models.PlannerMissingRecordGoal {
		t.Errorf("goal = %q, want the missing-record sentinel", input.CurrentTaskGoal)
	}
}

func TestPlannerInputParentAndPriorSiblings(t *testing.T) {
	parent := testNode("root", models.TaskTypePlan, models.StatusPlanDone, "", "root.1", "root.2", "root.3")
	parent.Result = "outline with three parts"
	s1 := testNode("root.1", models.TaskTypeWrite, models.StatusDone, "root")
	s1.Result = "part one text"
	s2 := testNode("root.2", models.TaskTypeWrite, models.StatusReady, "root")
	cur := testNode("root.3", models.TaskTypePlan, models.StatusReady, "root")
	store := buildStore(parent, s1, s2, cur)

	b := NewPlannerContextBuilder(store, testPolicy(), slog.Default())
	input := b.ResolveInput(context.Background(), PlannerRequest{
		TaskID:             "root.3",
		Goal:               "plan part three",
		OverallProjectGoal: "write the report",
	})

	if len(input.ParentHierarchyContext) != 1 {
		t.Fatalf("parent context items = %d, want 1", len(input.ParentHierarchyContext))
	}
	if input.ParentHierarchyContext[0].TaskID != "root" {
		t.Errorf("parent context from %s, want root", input.ParentHierarchyContext[0].TaskID)
	}

	if len(input.PriorSiblingTaskOutputs) != 1 {
		t.Fatalf("prior siblings = %d, want 1 (root.2 is not DONE)", len(input.PriorSiblingTaskOutputs))
	}
	if input.PriorSiblingTaskOutputs[0].TaskID != "root.1" {
		t.Errorf("prior sibling = %s, want root.1", input.PriorSiblingTaskOutputs[0].TaskID)
	}
}

func TestPlannerInputReplanPrecedence(t *testing.T) {
	parent := testNode("root", models.TaskTypePlan, models.StatusPlanDone, "", "root.1", "root.2")
	s1 := testNode("root.1", models.TaskTypeWrite, models.StatusDone, "root")
	s1.Result = "fresh sibling output that must NOT be used"
	cur := testNode("root.2", models.TaskTypePlan, models.StatusNeedsReplan, "root")
	store := buildStore(parent, s1, cur)

	previous := []models.ExecutionHistoryItem{
		{TaskID: "root.1", TaskGoal: "earlier attempt", OutcomeSummary: "prior successful output"},
	}
	b := NewPlannerContextBuilder(store, testPolicy(), slog.Default())
	input := b.ResolveInput(context.Background(), PlannerRequest{
		TaskID: "root.2",
		Goal:   "replan part two",
		ReplanDetails: &models.ReplanRequestDetails{
			FailedTaskGoal: "plan part two",
			FailureReason:  "plan was infeasible",
		},
		PreviousAttemptOutputs: previous,
	})

	if !reflect.DeepEqual(input.PriorSiblingTaskOutputs, previous) {
		t.Errorf("replan context not used verbatim: %+v", input.PriorSiblingTaskOutputs)
	}
	if input.ReplanRequestDetails == nil || input.ReplanRequestDetails.FailureReason != "plan was infeasible" {
		t.Error("replan details not carried through")
	}
}

func TestPlannerInputRootTask(t *testing.T) {
	store := buildStore(testNode("root", models.TaskTypePlan, models.StatusReady, ""))
	b := NewPlannerContextBuilder(store, testPolicy(), slog.Default())
	input := b.ResolveInput(context.Background(), PlannerRequest{TaskID: "root", Goal: "plan the project"})

	if len(input.ParentHierarchyContext) != 0 || len(input.PriorSiblingTaskOutputs) != 0 {
		t.Error("root task should have neither parent nor sibling context")
	}
	if input.CurrentTaskGoal != "plan the project" {
		t.Errorf("goal = %q", input.CurrentTaskGoal)
	}
}
