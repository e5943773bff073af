package resolve

import (
	"context"
	"log/slog"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/models"
)

// Kind enumerates the closed set of context-resolution strategies.
type Kind string

const (
	KindParent              Kind = "parent"
	KindPrerequisiteSibling Kind = "prerequisite_sibling"
	KindAncestorBranch      Kind = "ancestor_branch"
	KindGoalReference       Kind = "goal_reference"
	KindDependency          Kind = "dependency"
)

// IDSet is the per-pipeline-run dedup ledger. It is shared by reference
// across all strategies of one build so each source task contributes at most
// once, and must never be reused across builds.
type IDSet struct {
	m map[string]struct{}
}

// NewIDSet returns an empty set.
func NewIDSet() *IDSet {
	return &IDSet{m: make(map[string]struct{})}
}

// Has reports whether the id was already claimed.
func (s *IDSet) Has(id string) bool {
	_, ok := s.m[id]
	return ok
}

// Add claims an id. First-registered wins; adding twice is harmless.
func (s *IDSet) Add(id string) {
	s.m[id] = struct{}{}
}

// Len returns the number of claimed ids.
func (s *IDSet) Len() int { return len(s.m) }

// CollectInput carries the shared arguments of one strategy invocation.
type CollectInput struct {
	Record      *models.TaskRecord
	Store       knowledge.Reader
	Seen        *IDSet
	ProjectGoal string
	TaskType    string
}

// Strategy discovers zero or more context items for a task from one
// structural relationship. Implementations must skip ids already in the seen
// set, register every id they use, and never let an error or panic escape:
// problems are logged and the partial result returned.
type Strategy interface {
	Kind() Kind
	Collect(ctx context.Context, in CollectInput) []models.ContextItem
}

// strategySet constructs the five strategy singletons bound to one sizing
// policy and logger.
type strategySet struct {
	parent     Strategy
	sibling    Strategy
	ancestor   Strategy
	goalRef    Strategy
	dependency Strategy
}

func newStrategySet(policy SizingPolicy, logger *slog.Logger) strategySet {
	return strategySet{
		parent:     &parentStrategy{policy: policy, logger: logger},
		sibling:    &siblingStrategy{policy: policy, logger: logger},
		ancestor:   &ancestorStrategy{policy: policy, logger: logger},
		goalRef:    &goalReferenceStrategy{policy: policy, logger: logger},
		dependency: &dependencyStrategy{policy: policy, logger: logger},
	}
}

// forTaskType returns the ordered strategy list for a task type. The table is
// explicit: order decides which strategy claims a source id first. Unknown
// types use the default list.
func (s strategySet) forTaskType(taskType string) []Strategy {
	switch taskType {
	case models.TaskTypePlan:
		return []Strategy{s.parent, s.goalRef}
	case models.TaskTypeWrite:
		return []Strategy{s.parent, s.sibling, s.ancestor, s.goalRef, s.dependency}
	case models.TaskTypeThink:
		return []Strategy{s.parent, s.sibling, s.ancestor, s.goalRef}
	case models.TaskTypeSearch:
		return []Strategy{s.parent, s.sibling, s.goalRef}
	case models.TaskTypeAggregate:
		return []Strategy{s.parent, s.dependency, s.sibling, s.goalRef}
	default:
		return []Strategy{s.parent, s.sibling, s.ancestor, s.goalRef}
	}
}
