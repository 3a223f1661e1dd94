package products

import "context"

// RepositoryPort abstracts product persistence for the service.
type RepositoryPort interface {
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	List(ctx context.Context, req ListRequest) ([]Product, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the stock mutations used when a sale is applied.
type TxRepository interface {
	GetLotForUpdate(ctx context.Context, productID, lotID int64) (StockLot, error)
	UpdateLot(ctx context.Context, lot StockLot) error
}

// ListRequest filters catalogue listings.
type ListRequest struct {
	Search string
	Limit  int
	Offset int
}
