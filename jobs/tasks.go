// Package jobs contains the background tasks and the Asynq worker wiring.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-populates the dashboard cache.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload scopes a warmup run. An empty preset list falls back
// to the standard 7/30/90 day windows.
type DashboardWarmupPayload struct {
	PresetDays []int `json:"presetDays,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
