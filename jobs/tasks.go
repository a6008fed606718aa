// Package jobs wires background task processing: the Asynq worker,
// scheduler, and the order refresh job that keeps the merged snapshot
// warm.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrdersRefresh rebuilds the merged order snapshot.
	TaskOrdersRefresh = "orders:refresh"
)

// OrdersRefreshPayload configures one refresh run.
type OrdersRefreshPayload struct {
	// Reason tags why the refresh was requested, for log correlation.
	Reason string `json:"reason,omitempty"`
}

// NewOrdersRefreshTask constructs an Asynq task for a snapshot refresh.
func NewOrdersRefreshTask(payload OrdersRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrdersRefresh, data, asynq.Queue(QueueDefault)), nil
}
