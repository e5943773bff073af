package planning

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/models"
)

// maxNarratedAncestors caps how many ancestor levels the formatted block
// spells out; deeper levels collapse into a single notice line.
const maxNarratedAncestors = 3

// ParentContextBuilder builds the top-down "where am I in the hierarchy"
// narrative injected into child prompts. It flows downward, unlike the
// bottom-up context builder, and deliberately carries no parent output
// content: only goals and priorities propagate.
type ParentContextBuilder struct {
	store  knowledge.Reader
	logger *slog.Logger
}

// NewParentContextBuilder creates a downward-narrative builder.
func NewParentContextBuilder(store knowledge.Reader, logger *slog.Logger) *ParentContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParentContextBuilder{store: store, logger: logger}
}

// Build returns the ancestor-chain narrative for a task, or nil for root
// tasks. Lookups that hit a missing ancestor stop the walk; the narrative is
// built from whatever chain was resolved.
func (b *ParentContextBuilder) Build(taskID, projectGoal string) *models.ParentHierarchyContext {
	rec := b.store.GetRecord(taskID)
	if rec == nil {
		b.logger.Warn("task record not found for parent narrative", "task_id", taskID)
		return nil
	}

	chainRecords := b.ancestorChain(rec)
	if len(chainRecords) == 0 {
		return nil
	}

	chain := make([]models.AncestorContextNode, len(chainRecords))
	for i, ancestor := range chainRecords {
		chain[i] = models.AncestorContextNode{
			TaskID:   ancestor.TaskID,
			Goal:     ancestor.Goal,
			TaskType: ancestor.TaskType,
			Priority: ancestorPriority(i, len(chainRecords), ancestor),
			// Derived-insight fields stay nil: parent results are not
			// propagated downward.
		}
	}

	return &models.ParentHierarchyContext{
		ProjectGoal:    projectGoal,
		Chain:          chain,
		FormattedBlock: formatNarrative(projectGoal, chain),
	}
}

// ancestorChain walks from the task to root and returns the ancestors in
// current-to-root order with the task itself excluded: immediate parent
// first.
func (b *ParentContextBuilder) ancestorChain(rec *models.TaskRecord) []*models.TaskRecord {
	var chain []*models.TaskRecord
	cur := rec
	for cur.ParentTaskID != nil {
		parent := b.store.GetRecord(*cur.ParentTaskID)
		if parent == nil {
			b.logger.Warn("ancestor record missing, truncating chain", "task_id", rec.TaskID, "missing_id", *cur.ParentTaskID)
			break
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// ancestorPriority labels one ancestor: the immediate parent is always
// critical, the grandparent is high when the chain runs deeper than two
// levels, PLAN and THINK ancestors are high, everything else medium.
func ancestorPriority(idx, chainLen int, ancestor *models.TaskRecord) models.AncestorPriority {
	if idx == 0 {
		return models.PriorityCritical
	}
	if idx == 1 && chainLen > 2 {
		return models.PriorityHigh
	}
	if ancestor.TaskType == models.TaskTypePlan || ancestor.TaskType == models.TaskTypeThink {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

func formatNarrative(projectGoal string, chain []models.AncestorContextNode) string {
	var sb strings.Builder
	if projectGoal != "" {
		fmt.Fprintf(&sb, "Overall project goal: %s\n\n", projectGoal)
	}
	sb.WriteString("Position in the task hierarchy (nearest ancestor first):\n")

	narrated := chain
	if len(narrated) > maxNarratedAncestors {
		narrated = narrated[:maxNarratedAncestors]
	}
	for i, node := range narrated {
		fmt.Fprintf(&sb, "%d. [%s] %s", i+1, node.Priority, node.Goal)
		annotations := []struct {
			label string
			value *string
		}{
			{"insights", node.KeyInsights},
			{"constraints", node.Constraints},
			{"requirements", node.Requirements},
			{"reasoning", node.PlanningReasoning},
			{"coordination", node.CoordinationNotes},
		}
		for _, a := range annotations {
			if a.value != nil && *a.value != "" {
				fmt.Fprintf(&sb, "\n   %s: %s", a.label, *a.value)
			}
		}
		sb.WriteString("\n")
	}
	if extra := len(chain) - maxNarratedAncestors; extra > 0 {
		fmt.Fprintf(&sb, "...and %d more ancestor levels\n", extra)
	}
	fmt.Fprintf(&sb, "\nContribute to achieving the immediate parent goal: %s\n", chain[0].Goal)
	return sb.String()
}
