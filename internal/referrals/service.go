package referrals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloramed/velora/internal/identity"
	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/shared"
)

// OrderSource supplies the merged canonical order list for identity
// matching. Satisfied by the orders service.
type OrderSource interface {
	MergedOrders(ctx context.Context, opts orders.MergeOptions, forceRefresh bool) (*orders.Snapshot, error)
}

// Viewer identifies the authenticated rep/admin running a query. A lead
// matching the viewer never self-qualifies.
type Viewer struct {
	AccountID string
	Email     string
	Phone     string
}

// Bucket selects the referral listing split.
type Bucket string

const (
	BucketActive   Bucket = "active"
	BucketHistoric Bucket = "historic"
	BucketAll      Bucket = "all"
)

// ReferralView is a referral record with the derived matching and
// eligibility fields the web layer renders.
type ReferralView struct {
	ReferralRecord
	HasAccount     bool `json:"hasAccount"`
	HasOrdered     bool `json:"hasOrdered"`
	CreditEligible bool `json:"creditEligible"`
	IsActive       bool `json:"isActive"`
}

// Service owns referral lifecycle mutations and derived listings.
type Service struct {
	logger       *slog.Logger
	repo         Repository
	orderSource  OrderSource
	creditAmount decimal.Decimal
	clock        func() time.Time
}

// NewService constructs the referrals service. creditAmount is the fixed
// credit issued per converted referral.
func NewService(logger *slog.Logger, repo Repository, orderSource OrderSource, creditAmount decimal.Decimal) *Service {
	return &Service{
		logger:       logger,
		repo:         repo,
		orderSource:  orderSource,
		creditAmount: creditAmount,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// List returns referrals in the requested bucket with derived fields
// computed against the current accounts and merged orders.
func (s *Service) List(ctx context.Context, bucket Bucket, viewer Viewer) ([]ReferralView, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	matcher, err := s.buildMatcher(ctx, viewer)
	if err != nil {
		return nil, err
	}

	views := make([]ReferralView, 0, len(recs))
	for _, rec := range recs {
		view := ReferralView{
			ReferralRecord: rec,
			HasAccount:     matcher.HasAccount(leadOf(rec)),
			HasOrdered:     matcher.HasPlacedOrder(leadOf(rec)),
			CreditEligible: rec.EligibleForCredit(),
			IsActive:       rec.Active(),
		}
		switch bucket {
		case BucketActive:
			if !view.IsActive {
				continue
			}
		case BucketHistoric:
			if view.IsActive {
				continue
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func leadOf(rec ReferralRecord) identity.Lead {
	return identity.Lead{
		Email:              rec.ContactEmail,
		Phone:              rec.ContactPhone,
		AccountID:          rec.ContactAccountID,
		ReportedHasAccount: rec.ContactHasAccount,
		ReportedOrderCount: rec.ContactOrderCount,
	}
}

func (s *Service) buildMatcher(ctx context.Context, viewer Viewer) (identity.Matcher, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return identity.Matcher{}, fmt.Errorf("build matcher: %w", err)
	}
	accountKeys := identity.NewKeySet()
	for _, a := range accounts {
		accountKeys.AddAccountID(a.ID)
		accountKeys.AddEmail(a.Email)
		accountKeys.AddPhone(a.Phone)
	}

	orderKeys := identity.NewKeySet()
	snap, err := s.orderSource.MergedOrders(ctx, orders.MergeOptions{}, false)
	if err != nil && snap == nil {
		return identity.Matcher{}, fmt.Errorf("build matcher: %w", err)
	}
	if snap != nil {
		for _, o := range snap.Orders {
			orderKeys.AddAccountID(o.DoctorID)
			orderKeys.AddEmail(o.DoctorEmail)
			if o.BillingAddress != nil {
				orderKeys.AddEmail(o.BillingAddress.Email)
				orderKeys.AddPhone(o.BillingAddress.Phone)
			}
		}
	}

	selfKeys := identity.NewKeySet()
	selfKeys.AddAccountID(viewer.AccountID)
	selfKeys.AddEmail(viewer.Email)
	selfKeys.AddPhone(viewer.Phone)

	return identity.Matcher{Accounts: accountKeys, Orders: orderKeys, Self: selfKeys}, nil
}

// Create records a new referral. Inbound web submissions arrive as
// contact_form, everything else starts at pending.
func (s *Service) Create(ctx context.Context, rec ReferralRecord) (*ReferralRecord, error) {
	switch rec.Status {
	case "":
		rec.Status = StatusPending
	case StatusPending, StatusContactForm:
	default:
		return nil, fmt.Errorf("%w: new referrals start at pending or contact_form", shared.ErrValidation)
	}
	if rec.ContactEmail == "" && rec.ContactPhone == "" {
		return nil, fmt.Errorf("%w: a contact email or phone is required", shared.ErrValidation)
	}
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Transition moves a referral to the target status, enforcing the
// transition table and its guards.
func (s *Service) Transition(ctx context.Context, id string, target Status) (*ReferralRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(*rec, target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	s.logger.Info("referral status changed",
		slog.String("referral_id", id),
		slog.String("from", string(rec.Status)),
		slog.String("to", string(target)))
	return s.repo.Get(ctx, id)
}

// Credit issues the fixed referral credit at most once. Crediting is a
// deliberate human action; nothing issues it automatically.
func (s *Service) Credit(ctx context.Context, id string) (*ReferralRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.CreditIssuedAt != nil {
		return nil, shared.ErrCreditAlreadyIssued
	}
	if !rec.EligibleForCredit() {
		return nil, shared.ErrCreditNotEligible
	}
	won, err := s.repo.IssueCredit(ctx, id, s.creditAmount, s.clock())
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, shared.ErrCreditAlreadyIssued
	}
	s.logger.Info("referral credit issued",
		slog.String("referral_id", id),
		slog.String("amount", s.creditAmount.String()))
	return s.repo.Get(ctx, id)
}

// Remove deletes a manually-entered referral. Records tied to upstream
// submissions are never deleted, only re-bucketed.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
