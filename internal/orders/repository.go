package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veloramed/velora/internal/shared"
)

// Repository stores locally-authored order records. Payloads are kept as
// the raw JSON the rest of the engine normalizes, so the store and the
// external feed flow through the same code path.
type Repository interface {
	ListRaw(ctx context.Context) ([]map[string]any, error)
	GetRaw(ctx context.Context, id string) (map[string]any, error)
	CreateRaw(ctx context.Context, payload map[string]any) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed local order store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListRaw(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.pool.Query(ctx, `SELECT payload FROM local_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("orders: list local: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var payload map[string]any
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("orders: scan local order: %w", err)
		}
		out = append(out, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders: list local: %w", err)
	}
	return out, nil
}

func (r *repository) GetRaw(ctx context.Context, id string) (map[string]any, error) {
	var payload map[string]any
	err := r.pool.QueryRow(ctx, `SELECT payload FROM local_orders WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: get local order: %w", err)
	}
	return payload, nil
}

func (r *repository) CreateRaw(ctx context.Context, payload map[string]any) (string, error) {
	id := uuid.NewString()
	payload["id"] = id
	if _, ok := payload["createdAt"]; !ok {
		payload["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO local_orders (id, payload, created_at) VALUES ($1, $2, now())`,
		id, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", shared.ErrDuplicate
		}
		return "", fmt.Errorf("orders: create local order: %w", err)
	}
	return id, nil
}
