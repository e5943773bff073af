package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/models"
)

// siblingStrategy emits the outputs of earlier-indexed siblings. The parent's
// child order defines prerequisites: everything planned before the current
// task is implicit input to it.
type siblingStrategy struct {
	policy SizingPolicy
	logger *slog.Logger
}

func (s *siblingStrategy) Kind() Kind { return KindPrerequisiteSibling }

func (s *siblingStrategy) Collect(ctx context.Context, in CollectInput) []models.ContextItem {
	rec := in.Record
	if rec == nil || rec.ParentTaskID == nil {
		return nil
	}
	parent := in.Store.GetRecord(*rec.ParentTaskID)
	if parent == nil {
		s.logger.Warn("parent record not found for sibling resolution", "task_id", rec.TaskID, "parent_id", *rec.ParentTaskID)
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
		s.logger.Warn("task not listed among parent's children", "task_id", rec.TaskID, "parent_id", parent.TaskID)
		return nil
	}

	var items []models.ContextItem
	for _, sibID := range parent.ChildTaskIDs[:selfIdx] {
		if in.Seen.Has(sibID) {
			continue
		}
		sib := in.Store.GetRecord(sibID)
		if sib == nil {
			s.logger.Debug("prerequisite sibling missing from store", "sibling_id", sibID)
			continue
		}
		if sib.Status != models.StatusDone {
			continue
		}
		content := s.policy.ResolveContent(ctx, sib)
		if strings.TrimSpace(content) == "" {
			continue
		}
		in.Seen.Add(sibID)
		items = append(items, models.ContextItem{
			SourceTaskID:           sibID,
			SourceTaskGoal:         sib.Goal,
			Content:                content,
			ContentTypeDescription: "prerequisite_sibling_output",
		})
	}
	return items
}
