package commission

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository lists commission recipients.
type Repository interface {
	ListRecipients(ctx context.Context) ([]Recipient, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed recipient store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListRecipients(ctx context.Context) ([]Recipient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, COALESCE(email,''), role FROM recipients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("commission: list recipients: %w", err)
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var rec Recipient
		var role string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &role); err != nil {
			return nil, fmt.Errorf("commission: scan recipient: %w", err)
		}
		rec.Role = Role(role)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("commission: list recipients: %w", err)
	}
	return out, nil
}
