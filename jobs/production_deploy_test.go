package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/gerai-erp/gerai-erp/internal/production"
	"github.com/gerai-erp/gerai-erp/internal/shared"
)

type fakeDeployer struct {
	alloc production.Allocation
	err   error
	calls int
}

func (d *fakeDeployer) Deploy(ctx context.Context, compositionID, requested, actorID int64) (production.Allocation, error) {
	d.calls++
	if d.err != nil {
		return production.Allocation{}, d.err
	}
	return d.alloc, nil
}

type fakeKeyStore struct {
	seen    map[string]bool
	deleted []string
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{seen: make(map[string]bool)}
}

func (s *fakeKeyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	s.seen[key] = true
	return nil
}

func (s *fakeKeyStore) Delete(ctx context.Context, key string) error {
	delete(s.seen, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func newDeployJob(d *fakeDeployer, s *fakeKeyStore) *ProductionDeployJob {
	return NewProductionDeployJob(d, s, slog.Default(), nil)
}

func TestDeployJobProcessesOnce(t *testing.T) {
	deployer := &fakeDeployer{alloc: production.Allocation{Requested: 3, Processed: 3}}
	store := newFakeKeyStore()
	job := newDeployJob(deployer, store)

	task, err := NewProductionDeployTask(ProductionDeployPayload{
		CompositionID: 1, RequestedBatch: 3, ActorID: 7, RequestID: "req-1",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, deployer.calls)
	require.True(t, store.seen["req-1"])
}

func TestDeployJobSkipsDuplicateDelivery(t *testing.T) {
	deployer := &fakeDeployer{alloc: production.Allocation{Requested: 3, Processed: 3}}
	store := newFakeKeyStore()
	job := newDeployJob(deployer, store)

	task, err := NewProductionDeployTask(ProductionDeployPayload{
		CompositionID: 1, RequestedBatch: 3, RequestID: "req-1",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, deployer.calls)
}

func TestDeployJobRollsBackKeyOnFailure(t *testing.T) {
	deployer := &fakeDeployer{err: errors.New("db down")}
	store := newFakeKeyStore()
	job := newDeployJob(deployer, store)

	task, err := NewProductionDeployTask(ProductionDeployPayload{
		CompositionID: 1, RequestedBatch: 3, RequestID: "req-1",
	})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.Equal(t, []string{"req-1"}, store.deleted)

	// key released, a later redelivery must run the deploy again
	deployer.err = nil
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 2, deployer.calls)
}

func TestDeployJobSettlesNotDeployable(t *testing.T) {
	deployer := &fakeDeployer{err: production.ErrNotDeployable}
	store := newFakeKeyStore()
	job := newDeployJob(deployer, store)

	task, err := NewProductionDeployTask(ProductionDeployPayload{
		CompositionID: 1, RequestedBatch: 3, RequestID: "req-1",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Empty(t, store.deleted)
	require.True(t, store.seen["req-1"])
}

func TestDeployJobMalformedPayloadSkipsRetry(t *testing.T) {
	job := newDeployJob(&fakeDeployer{}, newFakeKeyStore())

	task := asynq.NewTask(TaskProductionDeploy, []byte("{not json"))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}
