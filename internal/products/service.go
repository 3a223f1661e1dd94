package products

import (
	"context"
	"fmt"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// Service coordinates catalogue lookups and stock movements for sales.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Resolve loads the products referenced by a sale request, keyed by ID.
// Missing IDs are simply absent from the result; the caller decides whether
// partial resolution is acceptable.
func (s *Service) Resolve(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}
	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	byID := make(map[int64]Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	return byID, nil
}

// ApplySaleStock decrements availability and increments the sold counter on
// each referenced lot. On cash sales the lot also accrues the sale margin as
// utility; credit margin is recognised on payment instead.
func (s *Service) ApplySaleStock(ctx context.Context, items []SoldItem, cashSale bool) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		for _, item := range items {
			lot, err := repo.GetLotForUpdate(ctx, item.ProductID, item.StockLotID)
			if err != nil {
				return fmt.Errorf("load lot %d: %w", item.StockLotID, err)
			}
			lot.UnitsAvailable -= item.Quantity
			lot.UnitsSold += item.Quantity
			if cashSale {
				lot.Utility += (item.SalePrice - lot.BuyPrice) * money.Money(item.Quantity)
			}
			if err := repo.UpdateLot(ctx, lot); err != nil {
				return fmt.Errorf("update lot %d: %w", item.StockLotID, err)
			}
		}
		return nil
	})
}

// List returns catalogue entries for the back office.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}
