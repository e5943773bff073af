package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/models"
)

// ancestorStrategy gives WRITE and THINK tasks awareness of parallel work in
// sibling sub-trees. When the grandparent exists and is itself a PLAN node it
// becomes the broad-context ancestor, exposing sibling branches rather than
// just sibling tasks.
type ancestorStrategy struct {
	policy SizingPolicy
	logger *slog.Logger
}

func (s *ancestorStrategy) Kind() Kind { return KindAncestorBranch }

func (s *ancestorStrategy) Collect(ctx context.Context, in CollectInput) []models.ContextItem {
	if in.TaskType != models.TaskTypeWrite && in.TaskType != models.TaskTypeThink {
		return nil
	}
	rec := in.Record
	if rec == nil || rec.ParentTaskID == nil {
		return nil
	}
	parent := in.Store.GetRecord(*rec.ParentTaskID)
	if parent == nil {
		s.logger.Warn("parent record not found for ancestor resolution", "task_id", rec.TaskID, "parent_id", *rec.ParentTaskID)
		return nil
	}

	ancestor := parent
	if parent.ParentTaskID != nil {
		if grandparent := in.Store.GetRecord(*parent.ParentTaskID); grandparent != nil &&
			grandparent.NodeType != nil && *grandparent.NodeType == models.NodeTypePlan {
			ancestor = grandparent
		}
	}

	var items []models.ContextItem
	for _, branch := range in.Store.GetChildRecords(ancestor.TaskID) {
		if branch.TaskID == rec.TaskID || branch.TaskID == parent.TaskID {
			continue
		}
		if in.Seen.Has(branch.TaskID) {
			continue
		}
		if branch.Status != models.StatusDone {
			continue
		}
		content := s.policy.ResolveContent(ctx, branch)
		if strings.TrimSpace(content) == "" {
			continue
		}
		in.Seen.Add(branch.TaskID)
		items = append(items, models.ContextItem{
			SourceTaskID:           branch.TaskID,
			SourceTaskGoal:         branch.Goal,
			Content:                content,
			ContentTypeDescription: ancestorBranchContentType(ancestor, branch),
		})
	}
	return items
}

func ancestorBranchContentType(ancestor, branch *models.TaskRecord) string {
	ancestorIsPlan := ancestor.NodeType != nil && *ancestor.NodeType == models.NodeTypePlan
	if ancestorIsPlan && strings.Contains(strings.ToLower(branch.OutputTypeDescription), "aggregate") {
		return "aggregated_ancestor_branch_output"
	}
	return "ancestor_branch_output"
}
