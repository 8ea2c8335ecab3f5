package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gerai-erp/gerai-erp/internal/jobs"
	"github.com/gerai-erp/gerai-erp/internal/production"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// Deployer runs the allocator for one queued request. Implemented by
// production.Service.
type Deployer interface {
	Deploy(ctx context.Context, compositionID, requested, actorID int64) (production.Allocation, error)
}

// KeyStore guards against duplicate deliveries. Implemented by
// shared.IdempotencyStore.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ProductionDeployJob executes queued allocator runs. The idempotency store
// guards against asynq redeliveries re-deducting ingredient stock.
type ProductionDeployJob struct {
	Service     Deployer
	Idempotency KeyStore
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewProductionDeployJob initialises the deploy handler.
func NewProductionDeployJob(svc Deployer, idem KeyStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProductionDeployJob {
	return &ProductionDeployJob{Service: svc, Idempotency: idem, Logger: logger, Metrics: metrics}
}

// Handle executes one allocation request.
func (j *ProductionDeployJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("production deploy: handler not configured")
	}
	var payload ProductionDeployPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if payload.RequestID != "" && j.Idempotency != nil {
		if err := j.Idempotency.CheckAndInsert(ctx, payload.RequestID, "production"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				j.Logger.Info("production deploy already processed",
					slog.String("request_id", payload.RequestID))
				return nil
			}
			return err
		}
	}

	tracker := j.Metrics.Track(TaskProductionDeploy)
	alloc, err := j.Service.Deploy(ctx, payload.CompositionID, payload.RequestedBatch, payload.ActorID)
	if err != nil {
		// a non-deployable request is a settled outcome, not a retry case
		if errors.Is(err, production.ErrNotDeployable) {
			j.Logger.Warn("production deploy not feasible",
				slog.Int64("composition_id", payload.CompositionID),
				slog.Any("error", err))
			_ = tracker.End(nil)
			return nil
		}
		if payload.RequestID != "" && j.Idempotency != nil {
			if delErr := j.Idempotency.Delete(ctx, payload.RequestID); delErr != nil {
				j.Logger.Warn("idempotency rollback failed", slog.Any("error", delErr))
			}
		}
		return tracker.End(err)
	}

	completion := "full"
	if alloc.Partial {
		completion = "partial"
	}
	j.Metrics.AddProcessedBatches(completion, alloc.Processed)
	j.Logger.Info("production deploy finished",
		slog.Int64("composition_id", payload.CompositionID),
		slog.Int64("requested", alloc.Requested),
		slog.Int64("processed", alloc.Processed))
	return tracker.End(nil)
}
