package resolve

import (
	"context"
	"log/slog"

	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/models"
)

// Builder runs the strategy pipeline for a task and assembles the agent
// input. It is a pure read/compute component: it never mutates the store.
type Builder struct {
	store      knowledge.Reader
	strategies strategySet
	logger     *slog.Logger
}

// NewBuilder creates a builder bound to a store and sizing policy.
func NewBuilder(store knowledge.Reader, policy SizingPolicy, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		store:      store,
		strategies: newStrategySet(policy, logger),
		logger:     logger,
	}
}

// ResolveRequest identifies the task to build context for.
type ResolveRequest struct {
	TaskID             string
	Goal               string
	TaskType           string
	AgentName          string
	OverallProjectGoal string
}

// ResolveContextForAgent builds the agent input for a task. A missing record
// yields an input with empty context items; no error ever crosses this
// boundary under normal operation. A failing strategy is logged and treated
// as if it had returned nothing; the rest of the pipeline proceeds.
func (b *Builder) ResolveContextForAgent(ctx context.Context, req ResolveRequest) models.AgentTaskInput {
	out := models.AgentTaskInput{
		CurrentTaskID:        req.TaskID,
		CurrentGoal:          req.Goal,
		CurrentTaskType:      req.TaskType,
		AgentName:            req.AgentName,
		OverallProjectGoal:   req.OverallProjectGoal,
		RelevantContextItems: []models.ContextItem{},
	}

	rec := b.store.GetRecord(req.TaskID)
	if rec == nil {
		b.logger.Warn("task record not found, resolving empty context", "task_id", req.TaskID)
		return out
	}

	seen := NewIDSet()
	in := CollectInput{
		Record:      rec,
		Store:       b.store,
		Seen:        seen,
		ProjectGoal: req.OverallProjectGoal,
		TaskType:    req.TaskType,
	}
	for _, strat := range b.strategies.forTaskType(req.TaskType) {
		items := b.runStrategy(ctx, strat, in)
		out.RelevantContextItems = append(out.RelevantContextItems, items...)
	}

	b.logger.Debug("context resolved",
		"task_id", req.TaskID,
		"task_type", req.TaskType,
		"items", len(out.RelevantContextItems),
		"sources", seen.Len())
	return out
}

// runStrategy isolates one strategy invocation so a panic cannot abort the
// pipeline.
func (b *Builder) runStrategy(ctx context.Context, strat Strategy, in CollectInput) (items []models.ContextItem) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("context strategy failed",
				"strategy", strat.Kind(),
				"task_id", in.Record.TaskID,
				"panic", r)
			items = nil
		}
	}()
	return strat.Collect(ctx, in)
}
