package referrals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/veloramed/velora/internal/shared"
)

// Repository persists referral records and exposes the known-accounts
// collection for identity matching.
type Repository interface {
	Get(ctx context.Context, id string) (*ReferralRecord, error)
	List(ctx context.Context) ([]ReferralRecord, error)
	Create(ctx context.Context, rec ReferralRecord) (string, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	// IssueCredit sets the credit fields only when none exist yet,
	// reporting whether this call won the write.
	IssueCredit(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	ListAccounts(ctx context.Context) ([]Account, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed referral store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const referralColumns = `id, referrer_id, contact_name, contact_email, contact_phone,
	contact_account_id, status, notes, contact_has_account, contact_order_count,
	contact_eligible_for_credit, permit_exempt, permit_file_id,
	credit_amount, credit_issued_at, created_at, updated_at`

func scanReferral(row pgx.Row) (*ReferralRecord, error) {
	var rec ReferralRecord
	var status string
	var referrerID, contactName, contactEmail, contactPhone, contactAccountID, notes *string
	var creditAmount *decimal.Decimal
	err := row.Scan(&rec.ID, &referrerID, &contactName, &contactEmail, &contactPhone,
		&contactAccountID, &status, &notes, &rec.ContactHasAccount, &rec.ContactOrderCount,
		&rec.ContactEligibleForCredit, &rec.PermitExempt, &rec.PermitFileID,
		&creditAmount, &rec.CreditIssuedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.CreditAmount = creditAmount
	if referrerID != nil {
		rec.ReferrerID = *referrerID
	}
	if contactName != nil {
		rec.ContactName = *contactName
	}
	if contactEmail != nil {
		rec.ContactEmail = *contactEmail
	}
	if contactPhone != nil {
		rec.ContactPhone = *contactPhone
	}
	if contactAccountID != nil {
		rec.ContactAccountID = *contactAccountID
	}
	if notes != nil {
		rec.Notes = *notes
	}
	return &rec, nil
}

func (r *repository) Get(ctx context.Context, id string) (*ReferralRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE id = $1`, id)
	rec, err := scanReferral(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("referrals: get: %w", err)
	}
	return rec, nil
}

func (r *repository) List(ctx context.Context) ([]ReferralRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+referralColumns+` FROM referrals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("referrals: list: %w", err)
	}
	defer rows.Close()

	var out []ReferralRecord
	for rows.Next() {
		rec, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("referrals: scan: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("referrals: list: %w", err)
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, rec ReferralRecord) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO referrals (id, referrer_id, contact_name, contact_email, contact_phone,
			contact_account_id, status, notes, permit_exempt, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,''),
			NULLIF($6,''), $7, NULLIF($8,''), $9, now(), now())`,
		id, rec.ReferrerID, rec.ContactName, rec.ContactEmail, rec.ContactPhone,
		rec.ContactAccountID, string(rec.Status), rec.Notes, rec.PermitExempt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", shared.ErrDuplicate
		}
		return "", fmt.Errorf("referrals: create: %w", err)
	}
	return id, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE referrals SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("referrals: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IssueCredit is guarded in SQL so two concurrent credits cannot both
// succeed: the row only updates while credit_issued_at is still null.
func (r *repository) IssueCredit(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE referrals
		SET credit_amount = $2, credit_issued_at = $3, updated_at = now()
		WHERE id = $1 AND credit_issued_at IS NULL`,
		id, amount, at)
	if err != nil {
		return false, fmt.Errorf("referrals: issue credit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM referrals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("referrals: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(name,''), COALESCE(email,''), COALESCE(phone,'') FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("referrals: list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Phone); err != nil {
			return nil, fmt.Errorf("referrals: scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("referrals: list accounts: %w", err)
	}
	return out, nil
}
