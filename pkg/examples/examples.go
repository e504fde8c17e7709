// Package examples ships ready-made plans that exercise every builtin
// executor. They double as living documentation for plan files.
package examples

import (
	"fmt"
	"sort"

	"github.com/goalflow/goalflow/pkg/models"
)

// Example pairs a goal with a static plan.
type Example struct {
	Name         string
	Goal         string
	WorkflowType string
	Declarations []models.TaskDeclaration
}

var catalog = map[string]Example{
	"data_pipeline": {
		Name:         "data_pipeline",
		Goal:         "Ingest data from the source API, transform it, and save the result",
		WorkflowType: "data_pipeline",
		Declarations: []models.TaskDeclaration{
			{
				ID:         "fetch_source",
				Name:       "Fetch source data",
				ActionType: "api_call",
				ActionConfig: map[string]any{
					"url":        "https://jsonplaceholder.typicode.com/users",
					"method":     "GET",
					"memory_key": "source_data",
				},
			},
			{
				ID:           "transform",
				Name:         "Apply business rules",
				ActionType:   "data_transform",
				Dependencies: []string{"fetch_source"},
				ActionConfig: map[string]any{
					"input":      "{{json .source_data}}",
					"expression": `{"record_count": {{len .body}}, "status": "transformed"}`,
					"memory_key": "transformed",
				},
			},
			{
				ID:           "save_result",
				Name:         "Write destination file",
				ActionType:   "file_operation",
				Dependencies: []string{"transform"},
				ActionConfig: map[string]any{
					"operation": "write",
					"path":      "/tmp/goalflow/pipeline_output.json",
					"content":   "{{json .transformed}}",
				},
			},
		},
	},
	"api_orchestration": {
		Name:         "api_orchestration",
		Goal:         "Orchestrate dependent API calls and aggregate their results",
		WorkflowType: "api_orchestration",
		Declarations: []models.TaskDeclaration{
			{
				ID:         "fetch_users",
				Name:       "Fetch users",
				ActionType: "api_call",
				ActionConfig: map[string]any{
					"url":        "https://jsonplaceholder.typicode.com/users",
					"memory_key": "users",
				},
			},
			{
				ID:         "fetch_posts",
				Name:       "Fetch posts",
				ActionType: "api_call",
				ActionConfig: map[string]any{
					"url":        "https://jsonplaceholder.typicode.com/posts",
					"memory_key": "posts",
				},
			},
			{
				ID:           "aggregate",
				Name:         "Aggregate results",
				ActionType:   "data_transform",
				Dependencies: []string{"fetch_users", "fetch_posts"},
				ActionConfig: map[string]any{
					"expression": `{"users": {{len .users.body}}, "posts": {{len .posts.body}}}`,
					"memory_key": "aggregate",
				},
			},
		},
	},
	"job_execution": {
		Name:         "job_execution",
		Goal:         "Execute a background job with a monitoring pause and a status report",
		WorkflowType: "job_execution",
		Declarations: []models.TaskDeclaration{
			{
				ID:         "start_job",
				Name:       "Record job start",
				ActionType: "file_operation",
				ActionConfig: map[string]any{
					"operation": "write",
					"path":      "/tmp/goalflow/job_status.json",
					"content":   `{"state": "running"}`,
				},
			},
			{
				ID:           "monitor_wait",
				Name:         "Monitoring interval",
				ActionType:   "wait",
				Dependencies: []string{"start_job"},
				ActionConfig: map[string]any{
					"duration": 5.0,
				},
			},
			{
				ID:           "report_status",
				Name:         "Report job status",
				ActionType:   "file_operation",
				Dependencies: []string{"monitor_wait"},
				NonCritical:  true,
				ActionConfig: map[string]any{
					"operation": "read",
					"path":      "/tmp/goalflow/job_status.json",
					"memory_key": "job_status",
				},
			},
		},
	},
}

// ByName returns the example plan registered under name.
func ByName(name string) (Example, error) {
	example, ok := catalog[name]
	if !ok {
		return Example{}, fmt.Errorf("unknown example %q (available: %v)", name, Names())
	}

	return example, nil
}

// Names lists the available examples in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
