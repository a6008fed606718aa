package referrals

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloramed/velora/internal/orders"
	"github.com/veloramed/velora/internal/shared"
)

type mockRepository struct {
	records  map[string]*ReferralRecord
	accounts []Account
	nextID   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{records: make(map[string]*ReferralRecord), nextID: 1}
}

func (m *mockRepository) put(rec ReferralRecord) string {
	id := rec.ID
	if id == "" {
		id = "ref-" + time.Now().Format("150405.000000")
	}
	rec.ID = id
	m.records[id] = &rec
	return id
}

func (m *mockRepository) Get(ctx context.Context, id string) (*ReferralRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context) ([]ReferralRecord, error) {
	out := make([]ReferralRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, rec ReferralRecord) (string, error) {
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	return m.put(rec), nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	rec, ok := m.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (m *mockRepository) IssueCredit(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	rec, ok := m.records[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if rec.CreditIssuedAt != nil {
		return false, nil
	}
	rec.CreditAmount = &amount
	rec.CreditIssuedAt = &at
	return true, nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	return m.accounts, nil
}

type mockOrderSource struct {
	orders []orders.Order
}

func (m *mockOrderSource) MergedOrders(ctx context.Context, opts orders.MergeOptions, force bool) (*orders.Snapshot, error) {
	return &orders.Snapshot{Orders: m.orders}, nil
}

func newTestService(repo *mockRepository, src *mockOrderSource) *Service {
	return NewService(slog.New(slog.DiscardHandler), repo, src, decimal.NewFromInt(50))
}

func TestListDerivesAccountAndOrderFlags(t *testing.T) {
	repo := newMockRepository()
	repo.accounts = []Account{{ID: "doc-1", Email: "bob@site.com"}}
	repo.put(ReferralRecord{ID: "r1", Status: StatusPending, ContactEmail: "bob+x@site.com"})
	repo.put(ReferralRecord{ID: "r2", Status: StatusPending, ContactEmail: "no-match@site.com"})

	src := &mockOrderSource{orders: []orders.Order{{DoctorEmail: "bob@site.com", Status: "completed"}}}
	svc := newTestService(repo, src)

	views, err := svc.List(context.Background(), BucketAll, Viewer{})
	require.NoError(t, err)
	byID := make(map[string]ReferralView)
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.True(t, byID["r1"].HasAccount, "plus-address alias must match the account")
	assert.True(t, byID["r1"].HasOrdered)
	assert.False(t, byID["r2"].HasAccount)
	assert.False(t, byID["r2"].HasOrdered)
}

func TestListBuckets(t *testing.T) {
	repo := newMockRepository()
	now := time.Now()
	repo.put(ReferralRecord{ID: "active", Status: StatusConverted})
	repo.put(ReferralRecord{ID: "credited", Status: StatusConverted, CreditIssuedAt: &now})
	repo.put(ReferralRecord{ID: "parked", Status: StatusNurture})
	svc := newTestService(repo, &mockOrderSource{})

	active, err := svc.List(context.Background(), BucketActive, Viewer{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].ID)

	historic, err := svc.List(context.Background(), BucketHistoric, Viewer{})
	require.NoError(t, err)
	assert.Len(t, historic, 2)
}

func TestCreditAtMostOnce(t *testing.T) {
	repo := newMockRepository()
	repo.put(ReferralRecord{ID: "r1", Status: StatusConverted, ContactEligibleForCredit: true})
	svc := newTestService(repo, &mockOrderSource{})

	rec, err := svc.Credit(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, rec.CreditIssuedAt)
	first := *rec.CreditIssuedAt
	require.NotNil(t, rec.CreditAmount)
	assert.Equal(t, "50", rec.CreditAmount.String())

	for i := 0; i < 3; i++ {
		_, err = svc.Credit(context.Background(), "r1")
		assert.ErrorIs(t, err, shared.ErrCreditAlreadyIssued)
	}
	after, err := repo.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, first, *after.CreditIssuedAt, "timestamp stays that of the first successful call")
}

func TestCreditRequiresEligibility(t *testing.T) {
	repo := newMockRepository()
	repo.put(ReferralRecord{ID: "r1", Status: StatusConverted, ContactEligibleForCredit: false})
	svc := newTestService(repo, &mockOrderSource{})

	_, err := svc.Credit(context.Background(), "r1")
	assert.ErrorIs(t, err, shared.ErrCreditNotEligible)

	repo.put(ReferralRecord{ID: "r2", Status: StatusAccountCreated, ContactEligibleForCredit: true})
	_, err = svc.Credit(context.Background(), "r2")
	assert.ErrorIs(t, err, shared.ErrCreditNotEligible)
}

func TestTransitionEnforcesTable(t *testing.T) {
	repo := newMockRepository()
	repo.put(ReferralRecord{ID: "r1", Status: StatusContacted})
	svc := newTestService(repo, &mockOrderSource{})

	_, err := svc.Transition(context.Background(), "r1", StatusVerified)
	assert.ErrorIs(t, err, shared.ErrPermitRequired)

	file := "permit.pdf"
	repo.put(ReferralRecord{ID: "r1", Status: StatusContacted, PermitFileID: &file})
	rec, err := svc.Transition(context.Background(), "r1", StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, rec.Status)
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockOrderSource{})

	rec, err := svc.Create(context.Background(), ReferralRecord{ContactName: "Dr. New", ContactEmail: "new@clinic.test"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)

	_, err = svc.Create(context.Background(), ReferralRecord{ContactName: "No Contact"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), ReferralRecord{Status: StatusConverted, ContactEmail: "x@y.z"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
