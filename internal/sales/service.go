package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abasto-pos/abasto-pos/internal/credit"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/money"
	"github.com/abasto-pos/abasto-pos/internal/observability"
	"github.com/abasto-pos/abasto-pos/internal/products"
	"github.com/abasto-pos/abasto-pos/internal/schedule"
)

// Catalog is the product/inventory collaborator.
type Catalog interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]products.Product, error)
	ApplySaleStock(ctx context.Context, items []products.SoldItem, cashSale bool) error
}

// CustomerBook is the customer store collaborator.
type CustomerBook interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
	AttachSale(ctx context.Context, customerID, saleID int64, pending money.Money, isCredit bool) error
	Recompute(ctx context.Context, customerID int64, sales []customers.CreditSnapshot) error
}

// Notifier dispatches the purchase notice. Fire-and-forget from the ledger's
// perspective; only the outcome slot records whether it worked.
type Notifier interface {
	SendPurchaseNotice(ctx context.Context, phone string, sale *Sale) error
}

// Locker serializes payment recording per sale.
type Locker interface {
	AcquireSaleLock(ctx context.Context, saleID int64) (release func(), err error)
}

// Config carries the ledger's tunables, sourced from app configuration.
type Config struct {
	// Installments is the fixed installment count of the credit plan.
	Installments int
	// NotifyTimeout bounds the outbound purchase notice so it cannot
	// delay visibility of a committed sale.
	NotifyTimeout time.Duration
}

// Service is the sale ledger engine.
type Service struct {
	repo      RepositoryPort
	catalog   Catalog
	customers CustomerBook
	notifier  Notifier
	locker    Locker
	metrics   *observability.Metrics
	cfg       Config
	logger    *slog.Logger
}

// NewService builds Service. notifier, locker and metrics may be nil; the
// corresponding behaviour degrades to skipped/unserialized/unobserved.
func NewService(repo RepositoryPort, catalog Catalog, book CustomerBook, notifier Notifier, locker Locker, metrics *observability.Metrics, cfg Config, logger *slog.Logger) *Service {
	if cfg.Installments <= 0 {
		cfg.Installments = credit.DefaultInstallments
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Service{
		repo:      repo,
		catalog:   catalog,
		customers: book,
		notifier:  notifier,
		locker:    locker,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateSaleItemInput is one requested line. OverridePrice, when set, wins
// over the catalogue price.
type CreateSaleItemInput struct {
	ProductID     int64
	StockLotID    int64
	Quantity      int
	OverridePrice *money.Money
}

// CreateSaleInput carries a validated sale request.
type CreateSaleInput struct {
	Items         []CreateSaleItemInput
	CustomerID    *int64
	CustomerName  string
	PaymentType   PaymentType
	Deposit       money.Money
	DepositDate   time.Time
	PaymentMethod PaymentMethod
	SellerID      int64
}

// CreateSale turns a sale request into a priced, scheduled ledger entry.
//
// The sale write is the unit of durability. Stock decrement, customer
// aggregate update and the purchase notice are independent best-effort
// effects attempted only after the sale committed; their outcomes are
// reported per slot instead of faking atomicity across collaborators.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (*CreateSaleResult, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if input.PaymentType != PaymentTypeCash && input.PaymentType != PaymentTypeCredit {
		return nil, ErrInvalidPaymentType
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d", products.ErrInvalidQuantity, item.ProductID)
		}
	}
	if input.DepositDate.IsZero() {
		input.DepositDate = time.Now()
	}

	var customer *customers.Customer
	customerName := input.CustomerName
	if input.CustomerID != nil {
		var err error
		customer, err = s.customers.Get(ctx, *input.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("find customer: %w", err)
		}
		customerName = customer.FullName
	}

	ids := make([]int64, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	resolved, err := s.catalog.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]SaleItem, 0, len(input.Items))
	var total, interest money.Money
	for _, req := range input.Items {
		product, ok := resolved[req.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, req.ProductID)
		}
		price := product.SellPriceCredit
		if input.PaymentType == PaymentTypeCash {
			price = product.SellPriceCash
		}
		if req.OverridePrice != nil {
			price = *req.OverridePrice
		}
		item := SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			SalePrice:   price,
			TotalPrice:  price * money.Money(req.Quantity),
			StockLotID:  req.StockLotID,
		}
		total += item.TotalPrice
		if margin := price - product.SellPriceCash; margin > 0 {
			interest += margin * money.Money(req.Quantity)
		}
		items = append(items, item)
	}

	sale := Sale{
		CustomerID:   input.CustomerID,
		CustomerName: customerName,
		SellerID:     input.SellerID,
		PaymentType:  input.PaymentType,
		Items:        items,
		Deposit:      input.Deposit,
		DepositDate:  input.DepositDate,
		TotalAmount:  total,
	}

	switch input.PaymentType {
	case PaymentTypeCash:
		// A cash sale settles in full at the counter.
		sale.Deposit = total
		sale.PaidAmount = total
		sale.PendingAmount = 0
		sale.Status = StatusPaid
	case PaymentTypeCredit:
		terms, err := credit.ComputeTerms(total, input.Deposit, input.DepositDate, s.cfg.Installments)
		if err != nil {
			return nil, err
		}
		sale.PaidAmount = input.Deposit
		sale.PendingAmount = terms.Pending
		sale.Installment = terms.Installment
		start := input.DepositDate
		next := terms.NextPaymentDate
		end := terms.EndDate
		sale.CreditStartDate = &start
		sale.NextPaymentDate = &next
		sale.CreditEndDate = &end
		sale.TotalInterest = interest
		sale.InterestPending = interest
		sale.Status = StatusPending
		if sale.PaidAmount == total {
			sale.Status = StatusPaid
			sale.InterestPaid = interest
			sale.InterestPending = 0
		}
	}

	sale.Payments = []Payment{{
		ID:         uuid.NewString(),
		Amount:     sale.Deposit,
		Date:       input.DepositDate,
		Method:     input.PaymentMethod,
		ReceivedBy: input.SellerID,
	}}

	persisted, err := s.repo.Create(ctx, sale)
	if err != nil {
		return nil, fmt.Errorf("save sale: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SaleCreated(string(input.PaymentType))
	}

	result := &CreateSaleResult{Sale: persisted}
	result.Effects = s.fanOut(ctx, persisted, customer)
	return result, nil
}

// fanOut runs the post-commit side effects concurrently and fills the
// per-effect outcome slots. Failures never unwind the sale.
func (s *Service) fanOut(ctx context.Context, sale *Sale, customer *customers.Customer) SideEffects {
	effects := SideEffects{
		Inventory:         EffectResult{Status: EffectOK},
		CustomerAggregate: EffectResult{Status: EffectSkipped},
		Notification:      EffectResult{Status: EffectSkipped},
	}

	sold := make([]products.SoldItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		sold = append(sold, products.SoldItem{
			ProductID:  item.ProductID,
			StockLotID: item.StockLotID,
			Quantity:   item.Quantity,
			SalePrice:  item.SalePrice,
		})
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := s.catalog.ApplySaleStock(ctx, sold, sale.PaymentType == PaymentTypeCash); err != nil {
			s.logger.Error("stock update failed", slog.Int64("sale_id", sale.ID), slog.Any("error", err))
			effects.Inventory = EffectResult{Status: EffectFailed, Error: err.Error()}
		}
		return nil
	})
	if customer != nil {
		g.Go(func() error {
			err := s.customers.AttachSale(ctx, customer.ID, sale.ID, sale.PendingAmount, sale.IsCredit())
			if err != nil {
				s.logger.Error("customer aggregate update failed", slog.Int64("customer_id", customer.ID), slog.Any("error", err))
				effects.CustomerAggregate = EffectResult{Status: EffectFailed, Error: err.Error()}
				return nil
			}
			effects.CustomerAggregate = EffectResult{Status: EffectOK}
			return nil
		})
		if s.notifier != nil && customer.Phone != "" {
			g.Go(func() error {
				nctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
				defer cancel()
				if err := s.notifier.SendPurchaseNotice(nctx, customer.Phone, sale); err != nil {
					s.logger.Warn("purchase notice failed", slog.Int64("sale_id", sale.ID), slog.Any("error", err))
					effects.Notification = EffectResult{Status: EffectFailed, Error: err.Error()}
					return nil
				}
				effects.Notification = EffectResult{Status: EffectOK}
				return nil
			})
		}
	}
	_ = g.Wait()
	return effects
}

// RecordPayment appends a payment to a sale and rebalances it. Concurrent
// recordings on the same sale are serialized by the per-sale lock and the
// version check; losers get a conflict and must reload. The payment row and
// the rebalanced sale commit together, so a conflict leaves the ledger
// untouched.
func (s *Service) RecordPayment(ctx context.Context, saleID int64, amount money.Money, method PaymentMethod, receivedBy int64, date time.Time) (*RecordPaymentResult, error) {
	if amount <= 0 {
		return nil, money.ErrInvalidAmount
	}
	if date.IsZero() {
		date = time.Now()
	}

	if s.locker != nil {
		release, err := s.locker.AcquireSaleLock(ctx, saleID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVersionConflict, err)
		}
		defer release()
	}

	sale, err := s.repo.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.PaidAmount+amount > sale.TotalAmount {
		return nil, fmt.Errorf("%w: pending %s, got %s", ErrOverpayment, sale.PendingAmount.Format(), amount.Format())
	}

	payment := Payment{
		ID:         uuid.NewString(),
		Amount:     amount,
		Date:       date,
		Method:     method,
		ReceivedBy: receivedBy,
	}
	sale.Payments = append(sale.Payments, payment)
	sale.PaidAmount += amount
	sale.PendingAmount = sale.TotalAmount - sale.PaidAmount
	sale.LastPaymentDate = &date
	if sale.PendingAmount == 0 {
		// Valid from both pending and overdue; paid is terminal.
		sale.Status = StatusPaid
		sale.InterestPaid = sale.TotalInterest
		sale.InterestPending = 0
	}

	updated, err := s.repo.RecordPayment(ctx, *sale, payment)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentRecorded(string(method))
	}

	result := &RecordPaymentResult{Sale: updated, CustomerAggregate: EffectResult{Status: EffectSkipped}}
	if updated.CustomerID != nil && updated.IsCredit() {
		if err := s.recomputeCustomer(ctx, *updated.CustomerID); err != nil {
			s.logger.Error("customer aggregate recompute failed", slog.Int64("customer_id", *updated.CustomerID), slog.Any("error", err))
			result.CustomerAggregate = EffectResult{Status: EffectFailed, Error: err.Error()}
		} else {
			result.CustomerAggregate = EffectResult{Status: EffectOK}
		}
	}
	return result, nil
}

// Get loads one sale.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// List returns sales matching the filter plus the total count.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Sale, int, error) {
	return s.repo.List(ctx, req)
}

// CreditSnapshots folds a customer's credit sales into aggregate snapshots.
func (s *Service) CreditSnapshots(ctx context.Context, customerID int64) ([]customers.CreditSnapshot, error) {
	sales, err := s.repo.ListByCustomer(ctx, customerID, true)
	if err != nil {
		return nil, err
	}
	snaps := make([]customers.CreditSnapshot, 0, len(sales))
	for _, sale := range sales {
		snaps = append(snaps, customers.CreditSnapshot{
			SaleID:      sale.ID,
			Pending:     sale.PendingAmount,
			Paid:        sale.PaidAmount,
			Installment: sale.Installment,
			Overdue:     sale.Status == StatusOverdue,
			Settled:     sale.Status == StatusPaid,
		})
	}
	return snaps, nil
}

// CreditSalesForCustomer returns the customer's unsettled credit sales
// narrowed by the portfolio report filters.
func (s *Service) CreditSalesForCustomer(ctx context.Context, customerID int64, status *Status, minOverdueBy int) ([]Sale, error) {
	return s.repo.ListCreditForReport(ctx, customerID, status, minOverdueBy)
}

func (s *Service) recomputeCustomer(ctx context.Context, customerID int64) error {
	snaps, err := s.CreditSnapshots(ctx, customerID)
	if err != nil {
		return err
	}
	return s.customers.Recompute(ctx, customerID, snaps)
}

// SweepOverdue advances due dates on outstanding credit sales and flips
// missed ones to overdue. The pass is idempotent: every touched sale ends
// with its next payment date at or past now, so a rerun finds nothing new.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) (*SweepReport, error) {
	due, err := s.repo.ListDueCredit(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due credit sales: %w", err)
	}

	report := &SweepReport{Scanned: len(due)}
	touched := make(map[int64]struct{})
	for _, sale := range due {
		if sale.NextPaymentDate == nil || sale.PendingAmount <= 0 {
			continue
		}
		missed := 0
		next := *sale.NextPaymentDate
		for next.Before(now) {
			next = schedule.NextPaymentDate(next)
			missed++
		}
		sale.NextPaymentDate = &next
		sale.OverdueByPeriods += missed
		if sale.Status == StatusPending {
			sale.Status = StatusOverdue
			report.MarkedOverdue++
		}
		if _, err := s.repo.Update(ctx, sale); err != nil {
			// A conflict means a concurrent payment got there first;
			// the next pass picks the sale up again.
			s.logger.Warn("sweep update failed", slog.Int64("sale_id", sale.ID), slog.Any("error", err))
			report.Failed++
			continue
		}
		if sale.CustomerID != nil {
			touched[*sale.CustomerID] = struct{}{}
		}
	}
	if s.metrics != nil {
		s.metrics.SweepCompleted(report.MarkedOverdue)
	}

	for customerID := range touched {
		if err := s.recomputeCustomer(ctx, customerID); err != nil {
			s.logger.Error("sweep aggregate recompute failed", slog.Int64("customer_id", customerID), slog.Any("error", err))
		}
	}
	return report, nil
}
