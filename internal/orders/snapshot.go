package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veloramed/velora/internal/shared"
)

const snapshotKey = "orders:snapshot"

// Snapshot is the last-known-good merged order state. Generation is a
// monotonically increasing refresh token; a snapshot from a superseded
// refresh must never overwrite a newer one.
type Snapshot struct {
	Generation  uint64    `json:"generation"`
	RefreshedAt time.Time `json:"refreshedAt"`
	Orders      []Order   `json:"orders"`
	Warning     string    `json:"warning,omitempty"`
}

// SnapshotStore persists the merged snapshot in Redis and serializes
// writers so stale refresh results are dropped rather than blindly
// overwriting newer state.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	latest uint64
}

// NewSnapshotStore constructs the store. A zero ttl keeps snapshots until
// the next refresh replaces them.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Load returns the stored snapshot, or nil when none exists yet.
func (s *SnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("orders: load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("orders: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Store persists a snapshot unless a newer generation has already been
// stored, in which case it returns ErrStaleRefresh and leaves the newer
// snapshot intact.
func (s *SnapshotStore) Store(ctx context.Context, snap Snapshot) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Generation < s.latest {
		return shared.ErrStaleRefresh
	}
	s.latest = snap.Generation

	if s.client == nil {
		return nil
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("orders: encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("orders: store snapshot: %w", err)
	}
	return nil
}
