package models

// ContextItem is one attributed unit of prior-task content assembled for an
// agent's prompt. Items are created per context-build call and never persisted.
type ContextItem struct {
	SourceTaskID           string `json:"sourceTaskId"`
	SourceTaskGoal         string `json:"sourceTaskGoal"`
	Content                any    `json:"content"`
	ContentTypeDescription string `json:"contentTypeDescription"`
}

// AgentTaskInput is the structured input handed to an executor agent.
type AgentTaskInput struct {
	CurrentTaskID        string        `json:"currentTaskId"`
	CurrentGoal          string        `json:"currentGoal"`
	CurrentTaskType      string        `json:"currentTaskType"`
	AgentName            string        `json:"agentName,omitempty"`
	OverallProjectGoal   string        `json:"overallProjectGoal,omitempty"`
	RelevantContextItems []ContextItem `json:"relevantContextItems"`
}

// ExecutionHistoryItem is one prior outcome handed to the planner agent,
// either the parent's output or a completed prior sibling's output.
type ExecutionHistoryItem struct {
	TaskID                string `json:"taskId"`
	TaskGoal              string `json:"taskGoal"`
	OutcomeSummary        string `json:"outcomeSummary"`
	OutputTypeDescription string `json:"outputTypeDescription,omitempty"`
}

// ReplanRequestDetails carries the failure context for a replanning attempt.
type ReplanRequestDetails struct {
	FailedTaskGoal        string `json:"failedTaskGoal"`
	FailureReason         string `json:"failureReason"`
	PreviousOutputSummary string `json:"previousOutputSummary,omitempty"`
	Guidance              string `json:"guidance,omitempty"`
}

// PlannerMissingRecordGoal is the sentinel goal string returned when the
// planning task's record cannot be found. Callers must check for it; the
// planner context builder never raises for a missing record.
const PlannerMissingRecordGoal = "ERROR: task record not found in knowledge store"

// PlannerInput is the assembly handed to the planner agent. It is built by a
// dedicated path and does not reuse the generic ContextItem pipeline.
type PlannerInput struct {
	CurrentTaskID           string                 `json:"currentTaskId"`
	CurrentTaskGoal         string                 `json:"currentTaskGoal"`
	OverallProjectGoal      string                 `json:"overallProjectGoal,omitempty"`
	ParentHierarchyContext  []ExecutionHistoryItem `json:"parentHierarchyContext,omitempty"`
	PriorSiblingTaskOutputs []ExecutionHistoryItem `json:"priorSiblingTaskOutputs,omitempty"`
	ReplanRequestDetails    *ReplanRequestDetails  `json:"replanRequestDetails,omitempty"`
	GlobalConstraints       []string               `json:"globalConstraints,omitempty"`
}

// AncestorPriority labels how strongly a downward-flow ancestor should weigh
// on a child task's reasoning.
type AncestorPriority string

const (
	PriorityCritical AncestorPriority = "critical"
	PriorityHigh     AncestorPriority = "high"
	PriorityMedium   AncestorPriority = "medium"
)

// AncestorContextNode is one level of the downward "where am I" narrative.
// The derived-insight fields are deliberately always nil: parent output
// content is not propagated downward (content isolation).
type AncestorContextNode struct {
	TaskID            string           `json:"taskId"`
	Goal              string           `json:"goal"`
	TaskType          string           `json:"taskType"`
	Priority          AncestorPriority `json:"priority"`
	KeyInsights       *string          `json:"keyInsights,omitempty"`
	Constraints       *string          `json:"constraints,omitempty"`
	Requirements      *string          `json:"requirements,omitempty"`
	PlanningReasoning *string          `json:"planningReasoning,omitempty"`
	CoordinationNotes *string          `json:"coordinationNotes,omitempty"`
}

// ParentHierarchyContext is the formatted ancestor-chain narrative injected
// into child prompts. Nil for root tasks.
type ParentHierarchyContext struct {
	ProjectGoal    string                `json:"projectGoal"`
	Chain          []AncestorContextNode `json:"chain"`
	FormattedBlock string                `json:"formattedBlock"`
}
