package sales

import (
	"errors"
	"time"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// PaymentType distinguishes cash sales from installment credit sales.
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

// PaymentMethod enumerates how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// Status is the derived state of a sale.
//
// pending → paid when the balance clears, pending → overdue when a due date
// passes with balance outstanding, overdue → paid when the balance clears.
// paid is terminal; overdue never returns to pending.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// SaleItem is one sold line. Immutable once the sale is created.
type SaleItem struct {
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	SalePrice   money.Money `json:"sale_price"`
	TotalPrice  money.Money `json:"total_price"`
	StockLotID  int64       `json:"stock_lot_id"`
}

// Payment is one received payment. The list on a sale is append-only; the
// first entry is always the deposit recorded at creation.
type Payment struct {
	ID         string        `json:"id"`
	Amount     money.Money   `json:"amount"`
	Date       time.Time     `json:"date"`
	Method     PaymentMethod `json:"method"`
	ReceivedBy int64         `json:"received_by"`
}

// Sale is the ledger aggregate for one sale, cash or credit.
type Sale struct {
	ID           int64       `json:"id"`
	CustomerID   *int64      `json:"customer_id,omitempty"`
	CustomerName string      `json:"customer_name"`
	SellerID     int64       `json:"seller_id"`
	PaymentType  PaymentType `json:"payment_type"`
	Items        []SaleItem  `json:"items"`
	Payments     []Payment   `json:"payments"`

	Deposit     money.Money `json:"deposit"`
	DepositDate time.Time   `json:"deposit_date"`

	TotalAmount   money.Money `json:"total_amount"`
	PaidAmount    money.Money `json:"paid_amount"`
	PendingAmount money.Money `json:"pending_amount"`
	Installment   money.Money `json:"installment"`

	// Interest is the credit markup over the cash price of the sold items.
	// It is earned when the credit settles, not at the counter.
	TotalInterest   money.Money `json:"total_interest"`
	InterestPaid    money.Money `json:"interest_paid"`
	InterestPending money.Money `json:"interest_pending"`

	CreditStartDate *time.Time `json:"credit_start_date,omitempty"`
	CreditEndDate   *time.Time `json:"credit_end_date,omitempty"`
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`

	Status           Status `json:"status"`
	OverdueByPeriods int    `json:"overdue_by_periods"`

	// Version guards concurrent payment recording. Updates must carry the
	// version they loaded; a stale version is a conflict the caller retries.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCredit reports whether the sale tracks an installment plan.
func (s *Sale) IsCredit() bool {
	return s.PaymentType == PaymentTypeCredit
}

var (
	// ErrNoItems indicates a sale request without items.
	ErrNoItems = errors.New("sales: sale must contain at least one item")
	// ErrProductNotFound indicates items referencing unknown products.
	// Partial resolution is rejected, never silently dropped.
	ErrProductNotFound = errors.New("sales: product not found")
	// ErrNotFound indicates a missing sale.
	ErrNotFound = errors.New("sales: not found")
	// ErrOverpayment indicates a payment that would push paid over total.
	ErrOverpayment = errors.New("sales: payment exceeds pending balance")
	// ErrVersionConflict indicates a concurrent update won the race. The
	// caller must reload the sale and retry.
	ErrVersionConflict = errors.New("sales: concurrent update conflict")
	// ErrInvalidPaymentType indicates an unknown payment type.
	ErrInvalidPaymentType = errors.New("sales: invalid payment type")
)

// EffectStatus is the outcome of one best-effort side effect.
type EffectStatus string

const (
	EffectOK      EffectStatus = "ok"
	EffectFailed  EffectStatus = "failed"
	EffectSkipped EffectStatus = "skipped"
)

// EffectResult is one outcome slot in a side-effect report.
type EffectResult struct {
	Status EffectStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// SideEffects reports the per-collaborator outcome of the fan-out that
// follows a durable sale write. The sale itself is never rolled back for a
// failed slot; callers reconcile or retry the specific effect.
type SideEffects struct {
	Inventory         EffectResult `json:"inventory"`
	CustomerAggregate EffectResult `json:"customer_aggregate"`
	Notification      EffectResult `json:"notification"`
}

// CreateSaleResult pairs the persisted sale with its side-effect report.
type CreateSaleResult struct {
	Sale    *Sale       `json:"sale"`
	Effects SideEffects `json:"effects"`
}

// RecordPaymentResult pairs the updated sale with the aggregate outcome.
type RecordPaymentResult struct {
	Sale              *Sale        `json:"sale"`
	CustomerAggregate EffectResult `json:"customer_aggregate"`
}

// SweepReport summarises one overdue sweep pass.
type SweepReport struct {
	Scanned       int `json:"scanned"`
	MarkedOverdue int `json:"marked_overdue"`
	Failed        int `json:"failed"`
}
