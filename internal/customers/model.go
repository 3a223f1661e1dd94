package customers

import (
	"errors"
	"time"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// Customer is the back-office customer record plus its credit aggregate.
//
// The aggregate fields (ActiveCredits, PendingPaymentsAmount,
// HasOverdueCredits) are a derived view over the customer's credit sales.
// The sale collection is authoritative; Recompute reconciles disagreements.
type Customer struct {
	ID              int64      `json:"id"`
	FullName        string     `json:"fullname"`
	Phone           string     `json:"phone"`
	SocialMedia     *string    `json:"social_media,omitempty"`
	SocialMediaName *string    `json:"social_media_name,omitempty"`
	DOB             *time.Time `json:"dob,omitempty"`
	Address         *string    `json:"address,omitempty"`
	IsActive        bool       `json:"is_active"`

	ActiveCredits         int         `json:"active_credits"`
	PendingPaymentsAmount money.Money `json:"pending_payments_amount"`
	HasOverdueCredits     bool        `json:"has_overdue_credits"`
	CreditScore           int         `json:"credit_score"`
	SaleIDs               []int64     `json:"sale_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreditSnapshot is the slice of a sale the aggregate recompute needs. The
// sales package builds these so customers never depends on it.
type CreditSnapshot struct {
	SaleID      int64
	Pending     money.Money
	Paid        money.Money
	Installment money.Money
	Overdue     bool
	Settled     bool
}

// PaymentInfo summarises a customer's outstanding credit position.
type PaymentInfo struct {
	CustomerID            int64       `json:"customer_id"`
	FullName              string      `json:"fullname"`
	Phone                 string      `json:"phone"`
	ActiveCredits         int         `json:"active_credits"`
	TotalPendingPayment   money.Money `json:"total_pending_payment"`
	ExpectedPaymentAmount money.Money `json:"expected_payment_amount"`
	HasOverduePayments    bool        `json:"has_overdue_payments"`
}

var (
	// ErrNotFound indicates a missing customer.
	ErrNotFound = errors.New("customers: not found")
	// ErrDuplicatePhone indicates the phone number is already registered.
	ErrDuplicatePhone = errors.New("customers: phone already registered")
)
