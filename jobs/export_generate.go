package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gerai-erp/gerai-erp/internal/exports"
	jobmetrics "github.com/gerai-erp/gerai-erp/internal/jobs"
)

// ExportGenerateJob renders queued data exports. Redeliveries are harmless:
// the service skips records that already left the pending state.
type ExportGenerateJob struct {
	Service *exports.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewExportGenerateJob initialises the export handler.
func NewExportGenerateJob(svc *exports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExportGenerateJob {
	return &ExportGenerateJob{Service: svc, Logger: logger, Metrics: metrics}
}

// Handle renders one export record.
func (j *ExportGenerateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("export generate: handler not configured")
	}
	var payload ExportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskExportGenerate)
	err := j.Service.Generate(ctx, payload.ExportID)
	if err != nil {
		j.Logger.Error("export generate failed",
			slog.Int64("export_id", payload.ExportID), slog.Any("error", err))
	}
	return tracker.End(err)
}
