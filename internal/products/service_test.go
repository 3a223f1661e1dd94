package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

type memoryRepo struct {
	products map[int64]*Product
	lots     map[int64]*StockLot
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]*Product), lots: make(map[int64]*StockLot)}
}

func (r *memoryRepo) add(p Product) {
	cp := p
	r.products[p.ID] = &cp
	for i := range cp.Lots {
		lot := cp.Lots[i]
		r.lots[lot.ID] = &lot
	}
}

func (r *memoryRepo) GetByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	var out []Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) GetLotForUpdate(ctx context.Context, productID, lotID int64) (StockLot, error) {
	lot, ok := r.lots[lotID]
	if !ok || lot.ProductID != productID {
		return StockLot{}, fmt.Errorf("%w: lot %d", ErrLotNotFound, lotID)
	}
	return *lot, nil
}

func (r *memoryRepo) UpdateLot(ctx context.Context, lot StockLot) error {
	*r.lots[lot.ID] = lot
	return nil
}

func sampleProduct() Product {
	return Product{
		ID:              1,
		Name:            "Pantalla 43",
		Code:            "TV-43",
		SellPriceCash:   money.Money(500000),
		SellPriceCredit: money.Money(650000),
		IsActive:        true,
		Lots: []StockLot{{
			ID:             10,
			ProductID:      1,
			BuyPrice:       money.Money(400000),
			UnitsAvailable: 5,
			RegisteredAt:   time.Now(),
		}},
	}
}

func TestResolve(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(sampleProduct())
	svc := NewService(repo)

	byID, err := svc.Resolve(context.Background(), []int64{1, 99})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	require.Equal(t, "Pantalla 43", byID[1].Name)
}

func TestApplySaleStockCashAccruesUtility(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(sampleProduct())
	svc := NewService(repo)

	items := []SoldItem{{ProductID: 1, StockLotID: 10, Quantity: 2, SalePrice: money.Money(500000)}}
	require.NoError(t, svc.ApplySaleStock(context.Background(), items, true))

	lot := repo.lots[10]
	require.Equal(t, 3, lot.UnitsAvailable)
	require.Equal(t, 2, lot.UnitsSold)
	require.Equal(t, money.Money(200000), lot.Utility)
}

func TestApplySaleStockCreditSkipsUtility(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(sampleProduct())
	svc := NewService(repo)

	items := []SoldItem{{ProductID: 1, StockLotID: 10, Quantity: 1, SalePrice: money.Money(650000)}}
	require.NoError(t, svc.ApplySaleStock(context.Background(), items, false))

	lot := repo.lots[10]
	require.Equal(t, 4, lot.UnitsAvailable)
	require.Equal(t, 1, lot.UnitsSold)
	require.Equal(t, money.Money(0), lot.Utility)
}

func TestApplySaleStockRejectsBadQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(sampleProduct())
	svc := NewService(repo)

	err := svc.ApplySaleStock(context.Background(), []SoldItem{{ProductID: 1, StockLotID: 10, Quantity: 0}}, true)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestApplySaleStockUnknownLot(t *testing.T) {
	repo := newMemoryRepo()
	repo.add(sampleProduct())
	svc := NewService(repo)

	err := svc.ApplySaleStock(context.Background(), []SoldItem{{ProductID: 1, StockLotID: 77, Quantity: 1}}, true)
	require.ErrorIs(t, err, ErrLotNotFound)
}
