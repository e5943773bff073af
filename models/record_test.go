package models

import (
	"testing"
	"time"
)

func TestValidateRecord(t *testing.T) {
	rec := &TaskRecord{TaskID: "root.1", Status: StatusReady}
	if err := ValidateRecord(rec); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	if err := ValidateRecord(&TaskRecord{Status: StatusReady}); err == nil {
		t.Error("record without task id should fail validation")
	}
	if err := ValidateRecord(&TaskRecord{TaskID: "x"}); err == nil {
		t.Error("record without status should fail validation")
	}
}

func TestTaskRecordHasOutput(t *testing.T) {
	tests := []struct {
		name    string
		content any
		want    bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"whitespace", "   \n", false},
		{"text", "done", true},
		{"structured", map[string]string{"k": "v"}, true},
	}
	for _, tc := range tests {
		rec := &TaskRecord{OutputContent: tc.content}
		if got := rec.HasOutput(); got != tc.want {
			t.Errorf("%s: HasOutput() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTaskRecordClone(t *testing.T) {
	parent := "root"
	rec := &TaskRecord{
		TaskID:           "root.1",
		Status:           StatusDone,
		ParentTaskID:     &parent,
		ChildTaskIDs:     []string{"root.1.1"},
		DependsOnIndices: []int{0},
		AuxData:          map[string]any{"k": "v"},
	}
	cp := rec.Clone()

	cp.ChildTaskIDs[0] = "mutated"
	cp.DependsOnIndices[0] = 9
	cp.AuxData["k"] = "mutated"

	if rec.ChildTaskIDs[0] != "root.1.1" || rec.DependsOnIndices[0] != 0 || rec.AuxData["k"] != "v" {
		t.Error("mutating the clone leaked into the original")
	}

	var nilRec *TaskRecord
	if nilRec.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestTaskNodeToRecord(t *testing.T) {
	parent := "root"
	done := time.Now()
	node := &TaskNode{
		TaskID:            "root.2",
		Goal:              "write section",
		TaskType:          TaskTypeWrite,
		Status:            StatusDone,
		ParentNodeID:      &parent,
		PlannedSubTaskIDs: []string{"root.2.1"},
		Layer:             1,
		Result:            "text",
		OutputSummary:     "summary",
		CompletedAt:       &done,
		AuxData:           map[string]any{"depends_on_indices": []int{0}},
	}
	rec := node.ToRecord()

	if rec.TaskID != "root.2" || rec.Status != StatusDone || rec.Layer != 1 {
		t.Errorf("core fields not carried over: %+v", rec)
	}
	if rec.ParentTaskID == nil || *rec.ParentTaskID != "root" {
		t.Error("parent id not carried over")
	}
	if rec.OutputContent != "text" || rec.OutputSummary != "summary" {
		t.Error("output fields not carried over")
	}

	// The record must not alias the node's slices.
	node.PlannedSubTaskIDs[0] = "mutated"
	if rec.ChildTaskIDs[0] != "root.2.1" {
		t.Error("record aliases the node's child list")
	}
}
