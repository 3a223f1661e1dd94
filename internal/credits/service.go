// Package credits builds the credit portfolio listing: every customer's
// outstanding credit exposure folded into one filterable risk row.
package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abasto-pos/abasto-pos/internal/credit"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/money"
	"github.com/abasto-pos/abasto-pos/internal/sales"
)

// ErrUnknownScoreLabel indicates a score-label filter outside the band table.
var ErrUnknownScoreLabel = errors.New("credits: unknown credit score label")

// CustomerSource narrows and pages the customer side of the listing.
type CustomerSource interface {
	List(ctx context.Context, req customers.ListRequest) ([]customers.Customer, int, error)
}

// SaleSource narrows the credit-sale side of the listing per customer.
type SaleSource interface {
	CreditSalesForCustomer(ctx context.Context, customerID int64, status *sales.Status, minOverdueBy int) ([]sales.Sale, error)
}

// ListingFilters narrow the portfolio before folding. Filtering happens in
// the source queries; folding an unfiltered set and discarding rows after
// would report aggregates over excluded sales.
type ListingFilters struct {
	Search       string
	OverdueOnly  bool
	ScoreLabel   *credit.ScoreLabel
	CreditStatus *sales.Status
	MinOverdueBy int
	Page         int
	PerPage      int
}

// ListingItem is one customer's folded credit exposure.
type ListingItem struct {
	CustomerID       int64             `json:"customer_id"`
	CustomerName     string            `json:"customer_name"`
	CreditScore      int               `json:"credit_score"`
	CreditScoreLabel credit.ScoreLabel `json:"credit_score_label"`

	IsOverdue bool `json:"is_overdue"`
	OverdueBy int  `json:"overdue_by"`

	PendingAmount       money.Money `json:"pending_amount"`
	PaidAmount          money.Money `json:"paid_amount"`
	InterestAccumulated money.Money `json:"interest_accumulated"`

	ActiveCreditPurchases int `json:"active_credit_purchases"`
	TotalPurchases        int `json:"total_purchases"`
}

// Listing is one page of the portfolio report.
type Listing struct {
	Items []ListingItem `json:"items"`
	Total int           `json:"total"`
}

// Service assembles portfolio listings from the customer and sale stores.
type Service struct {
	customers CustomerSource
	sales     SaleSource
	logger    *slog.Logger
}

// NewService builds Service.
func NewService(customerSource CustomerSource, saleSource SaleSource, logger *slog.Logger) *Service {
	return &Service{customers: customerSource, sales: saleSource, logger: logger}
}

// BuildListing folds each matching customer's unsettled credit sales into one
// row. The filters are pushed into both source queries up front.
func (s *Service) BuildListing(ctx context.Context, filters ListingFilters) (*Listing, error) {
	req := customers.ListRequest{
		Search:      filters.Search,
		OverdueOnly: filters.OverdueOnly,
		Limit:       filters.PerPage,
		Offset:      0,
	}
	if filters.Page > 1 && filters.PerPage > 0 {
		req.Offset = (filters.Page - 1) * filters.PerPage
	}
	if filters.ScoreLabel != nil {
		band, ok := credit.BandForLabel(*filters.ScoreLabel)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScoreLabel, *filters.ScoreLabel)
		}
		min, max := band.Min, band.Max
		req.ScoreMin = &min
		req.ScoreMax = &max
	}

	matched, total, err := s.customers.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	listing := &Listing{Items: make([]ListingItem, 0, len(matched)), Total: total}
	for _, customer := range matched {
		creditSales, err := s.sales.CreditSalesForCustomer(ctx, customer.ID, filters.CreditStatus, filters.MinOverdueBy)
		if err != nil {
			return nil, fmt.Errorf("credit sales for customer %d: %w", customer.ID, err)
		}
		listing.Items = append(listing.Items, foldCustomer(customer, creditSales))
	}
	return listing, nil
}

// foldCustomer reduces one customer's unsettled credit sales to a listing row.
func foldCustomer(customer customers.Customer, creditSales []sales.Sale) ListingItem {
	item := ListingItem{
		CustomerID:       customer.ID,
		CustomerName:     customer.FullName,
		CreditScore:      customer.CreditScore,
		CreditScoreLabel: credit.LabelForScore(customer.CreditScore),
		TotalPurchases:   len(customer.SaleIDs),
	}
	for _, sale := range creditSales {
		if sale.Status == sales.StatusPaid {
			continue
		}
		if sale.Status == sales.StatusOverdue {
			item.IsOverdue = true
			if sale.OverdueByPeriods > item.OverdueBy {
				item.OverdueBy = sale.OverdueByPeriods
			}
		}
		item.PendingAmount += sale.PendingAmount
		item.PaidAmount += sale.PaidAmount
		item.InterestAccumulated += sale.InterestPending
		item.ActiveCreditPurchases++
	}
	return item
}
