package resolve

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/planweave/planweave/models"
)

// taskIDPattern matches backtick-quoted dotted task ids rooted at "root",
// e.g. `root.1.2`.
var taskIDPattern = regexp.MustCompile("`(root(?:\\.[0-9]+)*)`")

// goalReferenceStrategy resolves task ids mentioned in the goal text itself.
// Authors of plans reference prior outputs by id in backticks; those outputs
// become context for the referencing task.
type goalReferenceStrategy struct {
	policy SizingPolicy
	logger *slog.Logger
}

func (s *goalReferenceStrategy) Kind() Kind { return KindGoalReference }

// ExtractGoalReferences returns the backtick-quoted task ids found in the
// goal text, deduplicated while preserving first-seen order.
func ExtractGoalReferences(goal string) []string {
	matches := taskIDPattern.FindAllStringSubmatch(goal, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var refs []string
	for _, m := range matches {
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}
	return refs
}

func (s *goalReferenceStrategy) Collect(ctx context.Context, in CollectInput) []models.ContextItem {
	rec := in.Record
	if rec == nil || rec.Goal == "" {
		return nil
	}

	var items []models.ContextItem
	for _, refID := range ExtractGoalReferences(rec.Goal) {
		if refID == rec.TaskID || in.Seen.Has(refID) {
			continue
		}
		ref := in.Store.GetRecord(refID)
		if ref == nil {
			s.logger.Warn("goal-referenced task not found", "task_id", rec.TaskID, "referenced_id", refID)
			continue
		}
		if ref.Status != models.StatusDone {
			continue
		}
		content := s.policy.ResolveContent(ctx, ref)
		if strings.TrimSpace(content) == "" {
			continue
		}
		in.Seen.Add(refID)
		items = append(items, models.ContextItem{
			SourceTaskID:           refID,
			SourceTaskGoal:         ref.Goal,
			Content:                content,
			ContentTypeDescription: "referenced_task_output",
		})
	}
	return items
}
