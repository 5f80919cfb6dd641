package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportQuarterWarmup pre-builds the current quarter's sales report
	// so the dashboard's heaviest view hits a warm cache.
	TaskReportQuarterWarmup = "report:quarter_warmup"
)

// QuarterWarmupPayload selects the quarter to warm. Zero values mean "the
// quarter containing now".
type QuarterWarmupPayload struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// NewQuarterWarmupTask constructs an Asynq task for the warmup handler.
func NewQuarterWarmupTask(payload QuarterWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportQuarterWarmup, data), nil
}
