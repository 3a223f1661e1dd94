package customers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

type memoryRepo struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]*Customer)}
}

func (r *memoryRepo) Create(ctx context.Context, c Customer) (int64, error) {
	for _, existing := range r.customers {
		if existing.Phone == c.Phone {
			return 0, ErrDuplicatePhone
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.customers[c.ID] = &c
	return c.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		if req.ActiveCreditsOnly && c.ActiveCredits == 0 {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(ctx context.Context, c Customer) error {
	if _, ok := r.customers[c.ID]; !ok {
		return ErrNotFound
	}
	stored := r.customers[c.ID]
	stored.FullName = c.FullName
	stored.Phone = c.Phone
	stored.Address = c.Address
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) GetForUpdate(ctx context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memoryRepo) UpdateAggregate(ctx context.Context, c Customer) error {
	stored, ok := r.customers[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.ActiveCredits = c.ActiveCredits
	stored.PendingPaymentsAmount = c.PendingPaymentsAmount
	stored.HasOverdueCredits = c.HasOverdueCredits
	stored.CreditScore = c.CreditScore
	stored.SaleIDs = c.SaleIDs
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, Defaults{StartingCreditScore: 500}, slog.Default())
}

func TestCreateSeedsDefaultScore(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	c, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "Maria Lopez", Phone: "5215512345678"})
	require.NoError(t, err)
	require.Equal(t, 500, c.CreditScore)
	require.Equal(t, 0, c.ActiveCredits)
	require.Equal(t, money.Money(0), c.PendingPaymentsAmount)
	require.False(t, c.HasOverdueCredits)
}

func TestCreateDuplicatePhone(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "A", Phone: "555"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateCustomerInput{FullName: "B", Phone: "555"})
	require.ErrorIs(t, err, ErrDuplicatePhone)
}

func TestAttachCreditSale(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	c, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "Maria", Phone: "1"})
	require.NoError(t, err)

	require.NoError(t, svc.AttachSale(context.Background(), c.ID, 42, money.Money(500000), true))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ActiveCredits)
	require.Equal(t, money.Money(500000), got.PendingPaymentsAmount)
	require.Equal(t, []int64{42}, got.SaleIDs)
}

func TestAttachCashSaleOnlyLinks(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	c, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "Maria", Phone: "1"})
	require.NoError(t, err)

	require.NoError(t, svc.AttachSale(context.Background(), c.ID, 7, 0, false))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.ActiveCredits)
	require.Equal(t, money.Money(0), got.PendingPaymentsAmount)
	require.Equal(t, []int64{7}, got.SaleIDs)
}

func TestRecompute(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	c, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "Maria", Phone: "1"})
	require.NoError(t, err)

	snaps := []CreditSnapshot{
		{SaleID: 1, Pending: 300000, Overdue: true},
		{SaleID: 2, Pending: 200000},
		{SaleID: 3, Settled: true, Pending: 0},
	}
	require.NoError(t, svc.Recompute(context.Background(), c.ID, snaps))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.ActiveCredits)
	require.Equal(t, money.Money(500000), got.PendingPaymentsAmount)
	require.True(t, got.HasOverdueCredits)
	// Score is owned by the external scoring flow.
	require.Equal(t, 500, got.CreditScore)
}

func TestPaymentInfo(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	c, err := svc.Create(context.Background(), CreateCustomerInput{FullName: "Maria", Phone: "555"})
	require.NoError(t, err)

	snaps := []CreditSnapshot{
		{SaleID: 1, Pending: 300000, Installment: 50000},
		{SaleID: 2, Pending: 120000, Installment: 20000, Overdue: true},
		{SaleID: 3, Settled: true},
	}
	info, err := svc.PaymentInfo(context.Background(), c.ID, snaps)
	require.NoError(t, err)
	require.Equal(t, money.Money(420000), info.TotalPendingPayment)
	require.Equal(t, money.Money(70000), info.ExpectedPaymentAmount)
	require.True(t, info.HasOverduePayments)
}
