package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/veloramed/velora/internal/jobs"
	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/shared"
)

type mockRefresher struct {
	snapshot *orders.Snapshot
	err      error
	calls    int
}

func (m *mockRefresher) Refresh(context.Context) (*orders.Snapshot, error) {
	m.calls++
	return m.snapshot, m.err
}

func newRefreshJob(t *testing.T, service OrderRefresher) *OrdersRefreshJob {
	t.Helper()
	job := NewOrdersRefreshJob(service, slog.New(slog.DiscardHandler), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})
	return job
}

func mustTask(t *testing.T, payload OrdersRefreshPayload) *asynq.Task {
	t.Helper()
	task, err := NewOrdersRefreshTask(payload)
	require.NoError(t, err)
	return task
}

func TestOrdersRefreshJobSuccess(t *testing.T) {
	service := &mockRefresher{snapshot: &orders.Snapshot{Generation: 3, Orders: []orders.Order{{ID: "1"}}}}
	job := newRefreshJob(t, service)

	err := job.Handle(context.Background(), mustTask(t, OrdersRefreshPayload{Reason: "cron"}))
	require.NoError(t, err)
	assert.Equal(t, 1, service.calls)
}

func TestOrdersRefreshJobBadPayloadSkipsRetry(t *testing.T) {
	service := &mockRefresher{}
	job := newRefreshJob(t, service)

	task := asynq.NewTask(TaskOrdersRefresh, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, service.calls)
}

func TestOrdersRefreshJobStaleResultIsNotAnError(t *testing.T) {
	service := &mockRefresher{err: fmt.Errorf("store snapshot: %w", shared.ErrStaleRefresh)}
	job := newRefreshJob(t, service)

	err := job.Handle(context.Background(), mustTask(t, OrdersRefreshPayload{}))
	assert.NoError(t, err)
}

func TestOrdersRefreshJobDegradedIsNotRetried(t *testing.T) {
	service := &mockRefresher{
		snapshot: &orders.Snapshot{Generation: 2, Warning: "external backend unreachable"},
		err:      fmt.Errorf("%w: connect refused", shared.ErrUpstream),
	}
	job := newRefreshJob(t, service)

	err := job.Handle(context.Background(), mustTask(t, OrdersRefreshPayload{Reason: "manual"}))
	assert.NoError(t, err, "last known good keeps serving; the scheduler retries on its own")
}

func TestOrdersRefreshJobHardFailure(t *testing.T) {
	cause := errors.New("no snapshot and no sources")
	service := &mockRefresher{err: cause}
	job := newRefreshJob(t, service)

	err := job.Handle(context.Background(), mustTask(t, OrdersRefreshPayload{}))
	assert.ErrorIs(t, err, cause)
}
