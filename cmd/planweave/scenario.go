package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/planweave/planweave/models"
)

// ScenarioTask is one task in a scenario file.
type ScenarioTask struct {
	ID        string   `yaml:"id"`
	Goal      string   `yaml:"goal"`
	Type      string   `yaml:"type"`
	NodeType  string   `yaml:"node_type"`
	Status    string   `yaml:"status"`
	Parent    string   `yaml:"parent"`
	Children  []string `yaml:"children"`
	Layer     int      `yaml:"layer"`
	Output    string   `yaml:"output"`
	Summary   string   `yaml:"summary"`
	DependsOn []int    `yaml:"depends_on"`
}

// Scenario is a declarative task hierarchy used to drive the demo command.
type Scenario struct {
	ProjectGoal string         `yaml:"project_goal"`
	Tasks       []ScenarioTask `yaml:"tasks"`
}

// loadScenario reads a scenario YAML file, or returns the built-in demo when
// no path is given.
func loadScenario(path string) (*Scenario, error) {
	if path == "" {
		return builtinScenario(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Tasks) == 0 {
		return nil, fmt.Errorf("scenario %s declares no tasks", path)
	}
	for _, node := range s.Nodes() {
		if err := models.ValidateRecord(node.ToRecord()); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", path, err)
		}
	}
	return &s, nil
}

// Nodes converts scenario tasks into live task nodes for the store upsert.
func (s *Scenario) Nodes() []*models.TaskNode {
	now := time.Now()
	nodes := make([]*models.TaskNode, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		node := &models.TaskNode{
			TaskID:            t.ID,
			Goal:              t.Goal,
			TaskType:          t.Type,
			Status:            models.TaskStatus(t.Status),
			PlannedSubTaskIDs: t.Children,
			Layer:             t.Layer,
			OutputSummary:     t.Summary,
			DependsOnIndices:  t.DependsOn,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if t.Parent != "" {
			parent := t.Parent
			node.ParentNodeID = &parent
		}
		if t.NodeType != "" {
			nt := models.NodeType(t.NodeType)
			node.NodeType = &nt
		}
		if t.Output != "" {
			node.Result = t.Output
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// builtinScenario is a small aggregation hierarchy: two research tasks feed a
// final aggregate that also references the first one by id in its goal.
func builtinScenario() *Scenario {
	return &Scenario{
		ProjectGoal: "Compile a briefing on European capitals",
		Tasks: []ScenarioTask{
			{
				ID: "root", Goal: "Compile a briefing on European capitals",
				Type: models.TaskTypePlan, NodeType: "PLAN", Status: "PLAN_DONE",
				Children: []string{"root.1", "root.2", "root.3"},
				Output:   "Research France and Germany, then aggregate the findings.",
			},
			{
				ID: "root.1", Goal: "Find the capital of France",
				Type: models.TaskTypeWrite, NodeType: "EXECUTE", Status: "DONE",
				Parent: "root", Layer: 1,
				Output: "Paris is the capital of France.",
			},
			{
				ID: "root.2", Goal: "Find the capital of Germany",
				Type: models.TaskTypeWrite, NodeType: "EXECUTE", Status: "DONE",
				Parent: "root", Layer: 1,
				Output: "Berlin is the capital of Germany.",
			},
			{
				ID: "root.3", Goal: "Combine the findings of `root.1` and `root.2` into one briefing",
				Type: models.TaskTypeAggregate, NodeType: "EXECUTE", Status: "READY",
				Parent: "root", Layer: 1,
				DependsOn: []int{0, 1},
			},
		},
	}
}
