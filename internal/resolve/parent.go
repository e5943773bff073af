package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/models"
)

// parentStrategy emits the parent's output when the parent finished planning
// or execution. A PLAN or THINK parent whose output looks like a plan gets the
// "parental_plan_or_outline" tag so executors treat it as an outline to follow.
type parentStrategy struct {
	policy SizingPolicy
	logger *slog.Logger
}

func (s *parentStrategy) Kind() Kind { return KindParent }

func (s *parentStrategy) Collect(ctx context.Context, in CollectInput) []models.ContextItem {
	rec := in.Record
	if rec == nil || rec.ParentTaskID == nil {
		return nil
	}
	parentID := *rec.ParentTaskID
	if in.Seen.Has(parentID) {
		return nil
	}
	parent := in.Store.GetRecord(parentID)
	if parent == nil {
		s.logger.Warn("parent record not found", "task_id", rec.TaskID, "parent_id", parentID)
		return nil
	}
	if !parent.IsTerminal() {
		return nil
	}
	content := s.policy.ResolveContent(ctx, parent)
	if strings.TrimSpace(content) == "" {
		s.logger.Debug("parent has no usable content", "parent_id", parentID)
		return nil
	}
	in.Seen.Add(parentID)
	return []models.ContextItem{{
		SourceTaskID:           parentID,
		SourceTaskGoal:         parent.Goal,
		Content:                content,
		ContentTypeDescription: parentContentType(parent),
	}}
}

func parentContentType(parent *models.TaskRecord) string {
	planner := parent.TaskType == models.TaskTypePlan || parent.TaskType == models.TaskTypeThink
	desc := strings.ToLower(parent.OutputTypeDescription)
	looksLikePlan := strings.Contains(desc, "plan") || strings.Contains(desc, "outline") ||
		parent.Status == models.StatusPlanDone
	if planner && looksLikePlan {
		return "parental_plan_or_outline"
	}
	return "parent_task_output"
}
