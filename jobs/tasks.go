package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductionDeploy runs the batch production allocator.
	TaskProductionDeploy = "production:deploy"
	// TaskExportGenerate renders a queued data export.
	TaskExportGenerate = "exports:generate"
)

// ProductionDeployPayload identifies one allocation request.
type ProductionDeployPayload struct {
	CompositionID  int64  `json:"composition_id"`
	RequestedBatch int64  `json:"requested_batch"`
	ActorID        int64  `json:"actor_id"`
	RequestID      string `json:"request_id"`
}

// NewProductionDeployTask constructs an Asynq task.
func NewProductionDeployTask(payload ProductionDeployPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductionDeploy, data), nil
}

// ExportGeneratePayload identifies one export record to render.
type ExportGeneratePayload struct {
	ExportID int64 `json:"export_id"`
}

// NewExportGenerateTask constructs an Asynq task.
func NewExportGenerateTask(payload ExportGeneratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExportGenerate, data), nil
}
