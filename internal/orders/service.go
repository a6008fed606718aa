package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/veloramed/velora/internal/shared"
)

const defaultDetailWorkers = 4

// LocalStore lists the raw local order payloads.
type LocalStore interface {
	ListRaw(ctx context.Context) ([]map[string]any, error)
}

// ExternalClient lists and fetches raw orders from the commerce backend.
type ExternalClient interface {
	ListOrders(ctx context.Context) ([]map[string]any, error)
	GetOrder(ctx context.Context, id string) (map[string]any, error)
}

// Service orchestrates refreshes of the merged order set. The engine
// functions themselves are pure; all fetching, fan-out, and snapshot
// bookkeeping lives here.
type Service struct {
	logger    *slog.Logger
	local     LocalStore
	external  ExternalClient
	snapshots *SnapshotStore

	detailWorkers int
	generation    atomic.Uint64
	refreshGroup  singleflight.Group
}

// NewService constructs the orders service.
func NewService(logger *slog.Logger, local LocalStore, external ExternalClient, snapshots *SnapshotStore) *Service {
	return &Service{
		logger:        logger,
		local:         local,
		external:      external,
		snapshots:     snapshots,
		detailWorkers: defaultDetailWorkers,
	}
}

// MergedOrders returns the current merged order list, refreshing when no
// snapshot exists yet or the caller forces one. Canceled orders are
// filtered at read time unless requested.
func (s *Service) MergedOrders(ctx context.Context, opts MergeOptions, forceRefresh bool) (*Snapshot, error) {
	var snap *Snapshot
	var err error
	if !forceRefresh {
		snap, err = s.snapshots.Load(ctx)
		if err != nil {
			return nil, err
		}
	}
	if snap == nil {
		snap, err = s.Refresh(ctx)
		if snap == nil {
			return nil, err
		}
	}
	return filterSnapshot(snap, opts), nil
}

// Refresh fetches both order collections, merges them, backfills shipping
// detail, and stores the result. Concurrent callers share one flight. On
// upstream failure the last-known-good snapshot is returned, with its
// warning set, alongside the retryable error so callers can choose between
// surfacing the soft warning and scheduling a retry.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	gen := s.generation.Add(1)

	result, err, _ := s.refreshGroup.Do("orders:refresh", func() (any, error) {
		return s.refresh(ctx, gen)
	})
	snap, _ := result.(*Snapshot)
	return snap, err
}

func (s *Service) refresh(ctx context.Context, gen uint64) (*Snapshot, error) {
	started := time.Now().UTC()

	var localRaw, externalRaw []map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := s.local.ListRaw(gctx)
		if err != nil {
			return fmt.Errorf("list local orders: %w", err)
		}
		localRaw = raw
		return nil
	})
	g.Go(func() error {
		raw, err := s.external.ListOrders(gctx)
		if err != nil {
			return fmt.Errorf("list external orders: %w", err)
		}
		externalRaw = raw
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.lastKnownGood(ctx, err)
	}

	merged := Merge(localRaw, externalRaw, MergeOptions{IncludeCanceled: true})
	s.backfillShippingDetail(ctx, merged)

	snap := Snapshot{
		Generation:  gen,
		RefreshedAt: started,
		Orders:      merged,
	}
	if err := s.snapshots.Store(ctx, snap); err != nil {
		if errors.Is(err, shared.ErrStaleRefresh) {
			s.logger.Info("dropped stale refresh", slog.Uint64("generation", gen))
			current, loadErr := s.snapshots.Load(ctx)
			if loadErr != nil {
				return nil, loadErr
			}
			return current, nil
		}
		return nil, err
	}
	s.logger.Info("refreshed merged orders",
		slog.Uint64("generation", gen),
		slog.Int("local", len(localRaw)),
		slog.Int("external", len(externalRaw)),
		slog.Int("merged", len(merged)),
		slog.Duration("duration", time.Since(started)))
	return &snap, nil
}

// lastKnownGood keeps the previous snapshot intact on a failed refresh and
// surfaces a soft warning instead of blanking the view.
func (s *Service) lastKnownGood(ctx context.Context, cause error) (*Snapshot, error) {
	s.logger.Warn("order refresh failed, keeping last snapshot", slog.Any("error", cause))
	prev, loadErr := s.snapshots.Load(ctx)
	if loadErr != nil || prev == nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, cause)
	}
	stale := *prev
	stale.Warning = "order data may be stale: last refresh failed"
	return &stale, fmt.Errorf("%w: %v", shared.ErrUpstream, cause)
}

// backfillShippingDetail re-fetches order detail for merged orders that
// still lack an ETA, with bounded concurrency to respect the third-party
// rate limit. Results are merged back by order key, never by index; the
// result map is guarded by a single mutex.
func (s *Service) backfillShippingDetail(ctx context.Context, merged []Order) {
	var pending []string
	for _, o := range merged {
		if o.ExternalID == "" {
			continue
		}
		if o.Shipping != nil && o.Shipping.ETA != nil {
			continue
		}
		pending = append(pending, o.ExternalID)
	}
	if len(pending) == 0 {
		return
	}

	var mu sync.Mutex
	details := make(map[string]map[string]any, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.detailWorkers)
	for _, id := range pending {
		g.Go(func() error {
			raw, err := s.external.GetOrder(gctx, id)
			if err != nil {
				// Detail backfill is best effort; the merged order
				// stands without it.
				s.logger.Warn("order detail fetch failed", slog.String("order_id", id), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			details[id] = raw
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range merged {
		raw, ok := details[merged[i].ExternalID]
		if !ok {
			continue
		}
		detail := NormalizeOrder(raw, SourceExternal)
		if detail.Shipping == nil {
			continue
		}
		if merged[i].Shipping == nil {
			merged[i].Shipping = detail.Shipping
			continue
		}
		if merged[i].Shipping.ETA == nil {
			merged[i].Shipping.ETA = detail.Shipping.ETA
		}
		if merged[i].Shipping.Status == "" {
			merged[i].Shipping.Status = detail.Shipping.Status
		}
		if merged[i].Shipping.TrackingNumber == "" {
			merged[i].Shipping.TrackingNumber = detail.Shipping.TrackingNumber
		}
	}
}

func filterSnapshot(snap *Snapshot, opts MergeOptions) *Snapshot {
	if snap == nil || opts.IncludeCanceled {
		return snap
	}
	out := *snap
	out.Orders = make([]Order, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if !o.IsCanceled() {
			out.Orders = append(out.Orders, o)
		}
	}
	return &out
}
