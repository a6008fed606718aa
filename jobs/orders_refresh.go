package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/veloramed/velora/internal/jobs"
	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/shared"
)

// OrderRefresher rebuilds the merged order snapshot.
type OrderRefresher interface {
	Refresh(ctx context.Context) (*orders.Snapshot, error)
}

// OrdersRefreshJob runs scheduled and on-demand snapshot refreshes.
type OrdersRefreshJob struct {
	Service OrderRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOrdersRefreshJob constructs the job handler.
func NewOrdersRefreshJob(service OrderRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrdersRefreshJob {
	return &OrdersRefreshJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one refresh run. A refresh that fell back to the last
// known good snapshot is logged and counted but not retried: the snapshot
// is still serving and the scheduler will try again next interval. A
// stale result (a newer snapshot landed first) is not an error at all.
func (j *OrdersRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("orders refresh: service not configured")
	}
	var payload OrdersRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOrdersRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	snap, err := j.Service.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrStaleRefresh):
		j.metrics().RecordStaleRefresh()
		j.log().Info("refresh superseded by newer snapshot", slog.String("reason", payload.Reason))
		return nil
	case snap != nil:
		j.metrics().RecordDegradedRefresh()
		j.log().Warn("refresh degraded, serving last known good",
			slog.String("reason", payload.Reason),
			slog.String("warning", snap.Warning),
			slog.Any("error", err))
		return nil
	default:
		resultErr = err
		j.log().Error("refresh failed", slog.String("reason", payload.Reason), slog.Any("error", err))
		return resultErr
	}

	j.log().Info("refreshed merged orders",
		slog.String("reason", payload.Reason),
		slog.Uint64("generation", snap.Generation),
		slog.Int("orders", len(snap.Orders)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *OrdersRefreshJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *OrdersRefreshJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOrdersRefresh))
	}
	return slog.Default().With(slog.String("job", TaskOrdersRefresh))
}

func (j *OrdersRefreshJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *OrdersRefreshJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
