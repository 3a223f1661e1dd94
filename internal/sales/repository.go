package sales

import (
	"context"
	"time"
)

// RepositoryPort abstracts sale persistence for the service.
type RepositoryPort interface {
	// Create persists the sale, its items and its opening payment as one
	// transaction and returns the stored sale.
	Create(ctx context.Context, sale Sale) (*Sale, error)
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, req ListRequest) ([]Sale, int, error)
	ListByCustomer(ctx context.Context, customerID int64, creditOnly bool) ([]Sale, error)
	// Update writes the mutable ledger fields guarded by the version the
	// sale was loaded with. A stale version returns ErrVersionConflict.
	Update(ctx context.Context, sale Sale) (*Sale, error)
	// RecordPayment stores the payment row and the rebalanced ledger
	// fields in one version-guarded transaction. A stale version returns
	// ErrVersionConflict and leaves no payment row behind.
	RecordPayment(ctx context.Context, sale Sale, payment Payment) (*Sale, error)
	// ListDueCredit returns credit sales whose next payment date lies
	// before the cutoff and whose balance is still outstanding.
	ListDueCredit(ctx context.Context, before time.Time) ([]Sale, error)
	// ListCreditForReport returns a customer's unsettled credit sales
	// narrowed by the report filters, so aggregates never fold rows the
	// filters exclude.
	ListCreditForReport(ctx context.Context, customerID int64, status *Status, minOverdueBy int) ([]Sale, error)
}

// ListRequest filters sale listings.
type ListRequest struct {
	CustomerID  *int64
	PaymentType *PaymentType
	Status      *Status
	Limit       int
	Offset      int
}
