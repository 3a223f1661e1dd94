package credits

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/credit"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/money"
	"github.com/abasto-pos/abasto-pos/internal/sales"
)

type fakeCustomerSource struct {
	customers []customers.Customer
	lastReq   customers.ListRequest
}

func (f *fakeCustomerSource) List(_ context.Context, req customers.ListRequest) ([]customers.Customer, int, error) {
	f.lastReq = req
	return f.customers, len(f.customers), nil
}

type fakeSaleSource struct {
	byCustomer  map[int64][]sales.Sale
	lastStatus  *sales.Status
	lastMinOver int
}

func (f *fakeSaleSource) CreditSalesForCustomer(_ context.Context, customerID int64, status *sales.Status, minOverdueBy int) ([]sales.Sale, error) {
	f.lastStatus = status
	f.lastMinOver = minOverdueBy
	return f.byCustomer[customerID], nil
}

func newListingService(cs *fakeCustomerSource, ss *fakeSaleSource) *Service {
	return NewService(cs, ss, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildListingFoldsCustomerCredits(t *testing.T) {
	cs := &fakeCustomerSource{customers: []customers.Customer{
		{ID: 1, FullName: "Marta Ríos", CreditScore: 650, SaleIDs: []int64{10, 11, 12}},
	}}
	ss := &fakeSaleSource{byCustomer: map[int64][]sales.Sale{
		1: {
			{ID: 10, Status: sales.StatusPending, PendingAmount: 400000, PaidAmount: 200000, InterestPending: 50000},
			{ID: 11, Status: sales.StatusOverdue, OverdueByPeriods: 3, PendingAmount: 100000, PaidAmount: 500000, InterestPending: 20000},
			{ID: 12, Status: sales.StatusOverdue, OverdueByPeriods: 1, PendingAmount: 50000, PaidAmount: 0, InterestPending: 0},
		},
	}}

	listing, err := newListingService(cs, ss).BuildListing(context.Background(), ListingFilters{})
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	require.Equal(t, 1, listing.Total)

	item := listing.Items[0]
	require.Equal(t, "Marta Ríos", item.CustomerName)
	require.Equal(t, credit.ScoreLabelBuena, item.CreditScoreLabel)
	require.True(t, item.IsOverdue)
	require.Equal(t, 3, item.OverdueBy)
	require.Equal(t, money.Money(550000), item.PendingAmount)
	require.Equal(t, money.Money(700000), item.PaidAmount)
	require.Equal(t, money.Money(70000), item.InterestAccumulated)
	require.Equal(t, 3, item.ActiveCreditPurchases)
	require.Equal(t, 3, item.TotalPurchases)
}

func TestBuildListingCustomerWithoutOverdue(t *testing.T) {
	cs := &fakeCustomerSource{customers: []customers.Customer{
		{ID: 2, FullName: "Hugo Benítez", CreditScore: 200},
	}}
	ss := &fakeSaleSource{byCustomer: map[int64][]sales.Sale{
		2: {{ID: 20, Status: sales.StatusPending, PendingAmount: 80000, PaidAmount: 20000}},
	}}

	listing, err := newListingService(cs, ss).BuildListing(context.Background(), ListingFilters{})
	require.NoError(t, err)

	item := listing.Items[0]
	require.Equal(t, credit.ScoreLabelMala, item.CreditScoreLabel)
	require.False(t, item.IsOverdue)
	require.Zero(t, item.OverdueBy)
	require.Equal(t, 1, item.ActiveCreditPurchases)
}

func TestBuildListingPushesFiltersToSources(t *testing.T) {
	cs := &fakeCustomerSource{}
	ss := &fakeSaleSource{}
	svc := newListingService(cs, ss)

	label := credit.ScoreLabelRegular
	status := sales.StatusOverdue
	_, err := svc.BuildListing(context.Background(), ListingFilters{
		Search:       "marta",
		OverdueOnly:  true,
		ScoreLabel:   &label,
		CreditStatus: &status,
		MinOverdueBy: 2,
		Page:         3,
		PerPage:      25,
	})
	require.NoError(t, err)

	require.Equal(t, "marta", cs.lastReq.Search)
	require.True(t, cs.lastReq.OverdueOnly)
	require.NotNil(t, cs.lastReq.ScoreMin)
	require.Equal(t, 400, *cs.lastReq.ScoreMin)
	require.NotNil(t, cs.lastReq.ScoreMax)
	require.Equal(t, 600, *cs.lastReq.ScoreMax)
	require.Equal(t, 25, cs.lastReq.Limit)
	require.Equal(t, 50, cs.lastReq.Offset)
}

func TestBuildListingPushesSaleFilters(t *testing.T) {
	cs := &fakeCustomerSource{customers: []customers.Customer{{ID: 5}}}
	ss := &fakeSaleSource{}
	status := sales.StatusOverdue

	_, err := newListingService(cs, ss).BuildListing(context.Background(), ListingFilters{
		CreditStatus: &status,
		MinOverdueBy: 2,
	})
	require.NoError(t, err)
	require.NotNil(t, ss.lastStatus)
	require.Equal(t, sales.StatusOverdue, *ss.lastStatus)
	require.Equal(t, 2, ss.lastMinOver)
}

func TestBuildListingRejectsUnknownLabel(t *testing.T) {
	label := credit.ScoreLabel("excelente")
	_, err := newListingService(&fakeCustomerSource{}, &fakeSaleSource{}).
		BuildListing(context.Background(), ListingFilters{ScoreLabel: &label})
	require.ErrorIs(t, err, ErrUnknownScoreLabel)
}
