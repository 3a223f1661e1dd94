package customers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// Defaults carries the configuration constants applied when a customer is
// created. They come from app configuration, never from literals scattered
// through call sites.
type Defaults struct {
	// StartingCreditScore seeds the credit score of new customers.
	StartingCreditScore int
}

// Service manages customers and their credit aggregates.
type Service struct {
	repo     RepositoryPort
	defaults Defaults
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, defaults Defaults, logger *slog.Logger) *Service {
	return &Service{repo: repo, defaults: defaults, logger: logger}
}

// CreateCustomerInput carries the fields a new customer starts with.
type CreateCustomerInput struct {
	FullName        string
	Phone           string
	SocialMedia     *string
	SocialMediaName *string
	Address         *string
}

// Create registers a customer with a zeroed credit aggregate and the
// configured starting score.
func (s *Service) Create(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	customer := Customer{
		FullName:        input.FullName,
		Phone:           input.Phone,
		SocialMedia:     input.SocialMedia,
		SocialMediaName: input.SocialMediaName,
		Address:         input.Address,
		IsActive:        true,
		CreditScore:     s.defaults.StartingCreditScore,
	}
	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

// Get loads one customer.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns customers matching the filter plus the total count.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// AttachSale links a sale to the customer. For credit sales the aggregate
// gains one active credit and the sale's opening balance.
func (s *Service) AttachSale(ctx context.Context, customerID, saleID int64, pending money.Money, isCredit bool) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		customer, err := repo.GetForUpdate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("load customer %d: %w", customerID, err)
		}
		customer.SaleIDs = append(customer.SaleIDs, saleID)
		if isCredit {
			customer.ActiveCredits++
			customer.PendingPaymentsAmount += pending
		}
		return repo.UpdateAggregate(ctx, *customer)
	})
}

// Recompute rebuilds the credit aggregate from sale snapshots. Used both for
// reconciliation sweeps and after payments mutate a sale. The credit score is
// left untouched; scoring is an external concern consumed here as input.
func (s *Service) Recompute(ctx context.Context, customerID int64, sales []CreditSnapshot) error {
	var pending money.Money
	active := 0
	overdue := false
	for _, snap := range sales {
		if snap.Settled {
			continue
		}
		active++
		pending += snap.Pending
		overdue = overdue || snap.Overdue
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		customer, err := repo.GetForUpdate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("load customer %d: %w", customerID, err)
		}
		customer.ActiveCredits = active
		customer.PendingPaymentsAmount = pending
		customer.HasOverdueCredits = overdue
		return repo.UpdateAggregate(ctx, *customer)
	})
}

// PaymentInfo folds the supplied active credit snapshots into the customer's
// outstanding position.
func (s *Service) PaymentInfo(ctx context.Context, customerID int64, sales []CreditSnapshot) (*PaymentInfo, error) {
	customer, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	info := PaymentInfo{
		CustomerID:    customer.ID,
		FullName:      customer.FullName,
		Phone:         customer.Phone,
		ActiveCredits: customer.ActiveCredits,
	}
	for _, snap := range sales {
		if snap.Settled {
			continue
		}
		info.TotalPendingPayment += snap.Pending
		info.ExpectedPaymentAmount += snap.Installment
		info.HasOverduePayments = info.HasOverduePayments || snap.Overdue
	}
	return &info, nil
}

// Update writes profile fields. The aggregate fields are owned by the ledger
// flows and are not touched here.
func (s *Service) Update(ctx context.Context, id int64, input CreateCustomerInput) (*Customer, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FullName != "" {
		customer.FullName = input.FullName
	}
	if input.Phone != "" {
		customer.Phone = input.Phone
	}
	if input.SocialMedia != nil {
		customer.SocialMedia = input.SocialMedia
	}
	if input.SocialMediaName != nil {
		customer.SocialMediaName = input.SocialMediaName
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if err := s.repo.Update(ctx, *customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

// Delete removes a customer record. Administrative path, not part of the
// ledger flows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
