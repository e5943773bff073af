package resolve

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/models"
)

// auxDependsOnKey is the aux-data fallback for dependency indices written by
// engines that do not populate the first-class field.
const auxDependsOnKey = "depends_on_indices"

// dependencyStrategy resolves explicitly wired dependencies: indices into the
// parent's child list, declared on the record or in its aux data.
type dependencyStrategy struct {
	policy SizingPolicy
	logger *slog.Logger
}

func (s *dependencyStrategy) Kind() Kind { return KindDependency }

func (s *dependencyStrategy) Collect(ctx context.Context, in CollectInput) []models.ContextItem {
	rec := in.Record
	if rec == nil {
		return nil
	}
	indices := dependencyIndices(rec)
	if len(indices) == 0 {
		return nil
	}
	if rec.ParentTaskID == nil {
		s.logger.Warn("dependency indices without a parent", "task_id", rec.TaskID)
		return nil
	}
	parent := in.Store.GetRecord(*rec.ParentTaskID)
	if parent == nil {
		s.logger.Warn("parent record not found for dependency resolution", "task_id", rec.TaskID, "parent_id", *rec.ParentTaskID)
		return nil
	}

	var items []models.ContextItem
	for _, idx := range indices {
		if idx < 0 || idx >= len(parent.ChildTaskIDs) {
			s.logger.Warn("dependency index out of range", "task_id", rec.TaskID, "index", idx, "children", len(parent.ChildTaskIDs))
			continue
		}
		depID := parent.ChildTaskIDs[idx]
		if depID == rec.TaskID || in.Seen.Has(depID) {
			continue
		}
		dep := in.Store.GetRecord(depID)
		if dep == nil {
			s.logger.Debug("dependency record missing from store", "dependency_id", depID)
			continue
		}
		if dep.Status != models.StatusDone {
			continue
		}
		content := s.policy.ResolveContent(ctx, dep)
		if strings.TrimSpace(content) == "" {
			continue
		}
		in.Seen.Add(depID)
		items = append(items, models.ContextItem{
			SourceTaskID:           depID,
			SourceTaskGoal:         dep.Goal,
			Content:                content,
			ContentTypeDescription: "explicit_dependency_output",
		})
	}
	return items
}

// dependencyIndices reads the first-class field and falls back to aux data.
// Aux values survive JSON round-trips as []any of float64; both shapes are
// accepted.
func dependencyIndices(rec *models.TaskRecord) []int {
	if len(rec.DependsOnIndices) > 0 {
		return rec.DependsOnIndices
	}
	raw, ok := rec.AuxData[auxDependsOnKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []int:
		return v
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			switch n := e.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			case json.Number:
				if i, err := n.Int64(); err == nil {
					out = append(out, int(i))
				}
			}
		}
		return out
	default:
		return nil
	}
}
