// Package models defines the task-record data model shared by the knowledge
// store, the context-resolution strategies, and the planning builders.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the lifecycle state of a task node.
// Statuses are compared by value; they travel as plain strings so that
// external execution engines stay loosely coupled to this module.
type TaskStatus string

const (
	StatusReady       TaskStatus = "READY"
	StatusPlanDone    TaskStatus = "PLAN_DONE"
	StatusDone        TaskStatus = "DONE"
	StatusFailed      TaskStatus = "FAILED"
	StatusAggregating TaskStatus = "AGGREGATING"
	StatusNeedsReplan TaskStatus = "NEEDS_REPLAN"
)

// NodeType distinguishes decomposition nodes from leaf work nodes.
type NodeType string

const (
	NodeTypePlan    NodeType = "PLAN"
	NodeTypeExecute NodeType = "EXECUTE"
)

// Task type vocabulary. The record keeps task types as plain strings; these
// constants cover the built-in agents. Unknown types are legal and resolve
// through the default strategy list.
const (
	TaskTypePlan      = "PLAN"
	TaskTypeWrite     = "WRITE"
	TaskTypeThink     = "THINK"
	TaskTypeSearch    = "SEARCH"
	TaskTypeAggregate = "AGGREGATE"
)

// TaskRecord is the immutable-by-convention snapshot of one task node's state
// as persisted in the knowledge store. Task ids encode hierarchy position as
// a dotted path from root (e.g. "root.1.2").
type TaskRecord struct {
	TaskID       string     `json:"taskId" validate:"required"`
	Goal         string     `json:"goal"`
	TaskType     string     `json:"taskType"`
	NodeType     *NodeType  `json:"nodeType,omitempty"`
	Status       TaskStatus `json:"status" validate:"required"`
	ParentTaskID *string    `json:"parentTaskId,omitempty"`

	// ChildTaskIDs lists generated children in plan-enumeration order.
	// The order is semantically meaningful: earlier-indexed siblings are
	// implicit prerequisites of later ones, and it is append-only once a
	// plan has been committed.
	ChildTaskIDs []string `json:"childTaskIds,omitempty"`

	// Layer is the depth in the hierarchy; root is 0.
	Layer int `json:"layer" validate:"gte=0"`

	// OutputContent is the raw agent result: a string, a structured value,
	// or nil when the task has not produced output yet.
	OutputContent any `json:"outputContent,omitempty"`

	// OutputSummary is a previously computed short-form rendering of the
	// output. It may be stale, empty, or uninformative boilerplate; callers
	// are expected to detect generic summaries and re-derive from the raw
	// output instead.
	OutputSummary string `json:"outputSummary,omitempty"`

	// OutputTypeDescription is a free-text label for the kind of output,
	// e.g. "parental_plan_or_outline".
	OutputTypeDescription string `json:"outputTypeDescription,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// SubGraphID identifies the child sub-graph a PLAN node spawned.
	SubGraphID *string `json:"subGraphId,omitempty"`

	// DependsOnIndices wires explicit dependencies as indices into the
	// parent's ChildTaskIDs. Kept as a first-class field; AuxData remains
	// for open-ended auxiliary values.
	DependsOnIndices []int          `json:"dependsOnIndices,omitempty"`
	AuxData          map[string]any `json:"auxData,omitempty"`
}

// IsTerminal reports whether the record reached a state that yields output
// usable as context for other tasks.
func (r *TaskRecord) IsTerminal() bool {
	return r.Status == StatusDone || r.Status == StatusPlanDone
}

// HasOutput reports whether the record carries any raw output content.
func (r *TaskRecord) HasOutput() bool {
	if r.OutputContent == nil {
		return false
	}
	if s, ok := r.OutputContent.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Clone returns a shallow copy of the record with its slices and aux map
// copied, so that store readers cannot mutate stored state through aliasing.
func (r *TaskRecord) Clone() *TaskRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ChildTaskIDs != nil {
		cp.ChildTaskIDs = append([]string(nil), r.ChildTaskIDs...)
	}
	if r.DependsOnIndices != nil {
		cp.DependsOnIndices = append([]int(nil), r.DependsOnIndices...)
	}
	if r.AuxData != nil {
		cp.AuxData = make(map[string]any, len(r.AuxData))
		for k, v := range r.AuxData {
			cp.AuxData[k] = v
		}
	}
	return &cp
}

var validate = validator.New()

// ValidateRecord checks the structural invariants of a record.
func ValidateRecord(r *TaskRecord) error {
	if err := validate.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("field %s failed rule %q", e.StructNamespace(), e.Tag()))
		}
		return fmt.Errorf("invalid task record: %s", strings.Join(msgs, "; "))
	}
	return nil
}
