// Package planning assembles planner-specific agent input and the downward
// ancestor narrative. Both paths are separate from the generic context-item
// pipeline.
package planning

import (
	"context"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/internal/resolve"
	"github.com/planweave/planweave/models"
)

// PlannerContextBuilder builds PlannerInput for a planning task: at most one
// parent history item, prior completed siblings, replan details, and global
// constraints.
type PlannerContextBuilder struct {
	store  knowledge.Reader
	policy resolve.SizingPolicy
	logger *slog.Logger
}

// NewPlannerContextBuilder creates a planner context builder.
func NewPlannerContextBuilder(store knowledge.Reader, policy resolve.SizingPolicy, logger *slog.Logger) *PlannerContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlannerContextBuilder{store: store, policy: policy, logger: logger}
}

// PlannerRequest carries the inputs of one planner context build. When a
// replan is in progress, PreviousAttemptOutputs replaces freshly computed
// sibling context verbatim.
type PlannerRequest struct {
	TaskID                 string
	Goal                   string
	OverallProjectGoal     string
	ReplanDetails          *models.ReplanRequestDetails
	PreviousAttemptOutputs []models.ExecutionHistoryItem
	GlobalConstraints      []string
}

// ResolveInput builds the planner input. A missing record yields an input
// whose goal is the PlannerMissingRecordGoal sentinel; no error is raised.
func (b *PlannerContextBuilder) ResolveInput(ctx context.Context, req PlannerRequest) models.PlannerInput {
	out := models.PlannerInput{
		CurrentTaskID:        req.TaskID,
		CurrentTaskGoal:      req.Goal,
		OverallProjectGoal:   req.OverallProjectGoal,
		ReplanRequestDetails: req.ReplanDetails,
		GlobalConstraints:    req.GlobalConstraints,
	}

	rec := b.store.GetRecord(req.TaskID)
	if rec == nil {
		b.logger.Warn("planning task record not found", "task_id", req.TaskID)
		out.CurrentTaskGoal = models.PlannerMissingRecordGoal
		return out
	}
	if out.CurrentTaskGoal == "" {
		out.CurrentTaskGoal = rec.Goal
	}

	out.ParentHierarchyContext = b.parentContext(ctx, rec)

	if req.ReplanDetails != nil {
		// Replan context takes full precedence over freshly computed
		// sibling context.
		out.PriorSiblingTaskOutputs = req.PreviousAttemptOutputs
		return out
	}
	out.PriorSiblingTaskOutputs = b.priorSiblings(ctx, rec)
	return out
}

// parentContext yields at most one history item, from the immediate parent on
// the path to root, bounded by the sizing policy.
func (b *PlannerContextBuilder) parentContext(ctx context.Context, rec *models.TaskRecord) []models.ExecutionHistoryItem {
	if rec.ParentTaskID == nil {
		return nil
	}
	parent := b.store.GetRecord(*rec.ParentTaskID)
	if parent == nil {
		b.logger.Warn("parent record not found for planner context", "task_id", rec.TaskID, "parent_id", *rec.ParentTaskID)
		return nil
	}
	content := b.policy.ResolveContent(ctx, parent)
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return []models.ExecutionHistoryItem{{
		TaskID:                parent.TaskID,
		TaskGoal:              parent.Goal,
		OutcomeSummary:        content,
		OutputTypeDescription: parent.OutputTypeDescription,
	}}
}

// priorSiblings gathers DONE siblings planned before the current task, in
// plan order.
func (b *PlannerContextBuilder) priorSiblings(ctx context.Context, rec *models.TaskRecord) []models.ExecutionHistoryItem {
	if rec.ParentTaskID == nil {
		return nil
	}
	parent := b.store.GetRecord(*rec.ParentTaskID)
	if parent == nil {
		return nil
	}
	selfIdx := -1
	for i, id := range parent.ChildTaskIDs {
		if id == rec.TaskID {
			selfIdx = i
			break
		}
	}
	if selfIdx < 0 {
		b.logger.Warn("planning task not listed among parent's children", "task_id", rec.TaskID, "parent_id", parent.TaskID)
		return nil
	}

	var items []models.ExecutionHistoryItem
	for _, sibID := range parent.ChildTaskIDs[:selfIdx] {
		sib := b.store.GetRecord(sibID)
		if sib == nil || sib.Status != models.StatusDone {
			continue
		}
		content := b.policy.ResolveContent(ctx, sib)
		if strings.TrimSpace(content) == "" {
			continue
		}
		items = append(items, models.ExecutionHistoryItem{
			TaskID:                sib.TaskID,
			TaskGoal:              sib.Goal,
			OutcomeSummary:        content,
			OutputTypeDescription: sib.OutputTypeDescription,
		})
	}
	return items
}
