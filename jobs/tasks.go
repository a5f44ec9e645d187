// Package jobs hosts the background worker: the report warmup task that
// refreshes cached reports on a schedule.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup rebuilds the cached reports.
	TaskReportWarmup = "report:warmup"
)

// ReportWarmupPayload selects which reports the warmup covers. An empty
// Scope warms everything.
type ReportWarmupPayload struct {
	Scope string `json:"scope,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
