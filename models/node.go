package models

import "time"

// TaskNode is the execution engine's live in-memory representation of a task.
// The knowledge store's upsert is the sole bridge from this mutable object to
// the persisted TaskRecord; context resolution never touches nodes directly.
type TaskNode struct {
	TaskID                string
	Goal                  string
	TaskType              string
	NodeType              *NodeType
	Status                TaskStatus
	ParentNodeID          *string
	PlannedSubTaskIDs     []string
	Layer                 int
	Result                any
	OutputSummary         string
	OutputTypeDescription string
	Error                 string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	CompletedAt           *time.Time
	SubGraphID            *string
	DependsOnIndices      []int
	AuxData               map[string]any
}

// ToRecord derives a TaskRecord snapshot from the node's current fields.
func (n *TaskNode) ToRecord() *TaskRecord {
	rec := &TaskRecord{
		TaskID:                n.TaskID,
		Goal:                  n.Goal,
		TaskType:              n.TaskType,
		NodeType:              n.NodeType,
		Status:                n.Status,
		ParentTaskID:          n.ParentNodeID,
		Layer:                 n.Layer,
		OutputContent:         n.Result,
		OutputSummary:         n.OutputSummary,
		OutputTypeDescription: n.OutputTypeDescription,
		ErrorMessage:          n.Error,
		CreatedAt:             n.CreatedAt,
		UpdatedAt:             n.UpdatedAt,
		CompletedAt:           n.CompletedAt,
		SubGraphID:            n.SubGraphID,
	}
	if n.PlannedSubTaskIDs != nil {
		rec.ChildTaskIDs = append([]string(nil), n.PlannedSubTaskIDs...)
	}
	if n.DependsOnIndices != nil {
		rec.DependsOnIndices = append([]int(nil), n.DependsOnIndices...)
	}
	if n.AuxData != nil {
		rec.AuxData = make(map[string]any, len(n.AuxData))
		for k, v := range n.AuxData {
			rec.AuxData[k] = v
		}
	}
	return rec
}
