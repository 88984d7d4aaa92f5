// Package research prepares the workspace of a stock research task.
package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"skillbox/pkg/twdata"
)

// Agents are the data collectors of a research task, each one writes into
// raw/<agent>.
var Agents = []string{"mops", "cnyes", "statementdog", "moneydj", "goodinfo"}

const ProgressFile = "progress.json"

type AgentStatus struct {
	Status string `json:"status"`
}

type Progress struct {
	TaskID         string                 `json:"task_id"`
	Mode           string                 `json:"mode"`
	TargetDate     string                 `json:"target_date"`
	StartedAt      string                 `json:"started_at"`
	Agents         map[string]AgentStatus `json:"agents"`
	Phase4Complete bool                   `json:"phase4_complete"`
	LastUpdated    *string                `json:"last_updated"`
}

// Task is the outcome of InitTask.
type Task struct {
	BasePath     string
	Directories  []string
	ProgressPath string
	Progress     Progress
}

// NewProgress is the progress document of a task started at now, the date
// is taken in the timezone of now.
func NewProgress(now time.Time) Progress {
	agents := make(map[string]AgentStatus, len(Agents))
	for _, agent := range Agents {
		agents[agent] = AgentStatus{Status: "pending"}
	}
	return Progress{
		TaskID:     fmt.Sprintf("stock-research-%s", now.Format("2006-01-02")),
		Mode:       "parallel",
		TargetDate: twdata.ROCFromTime(now),
		StartedAt:  now.Format(time.RFC3339),
		Agents:     agents,
	}
}

// InitTask creates the directory layout of a research task under basePath
// and (over)writes its progress.json. Existing directories are kept.
func InitTask(basePath string, now time.Time) (Task, error) {
	task := Task{
		BasePath:     basePath,
		Directories:  []string{basePath},
		ProgressPath: filepath.Join(basePath, ProgressFile),
		Progress:     NewProgress(now),
	}
	for _, agent := range Agents {
		task.Directories = append(task.Directories, filepath.Join(basePath, "raw", agent))
	}

	for _, dir := range task.Directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Task{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	content, err := json.MarshalIndent(task.Progress, "", "  ")
	if err != nil {
		return Task{}, err
	}
	if err := os.WriteFile(task.ProgressPath, append(content, '\n'), 0644); err != nil {
		return Task{}, fmt.Errorf("write %s: %w", task.ProgressPath, err)
	}
	return task, nil
}
