package customers

import "context"

// RepositoryPort abstracts customer persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, c Customer) (int64, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, req ListRequest) ([]Customer, int, error)
	Update(ctx context.Context, c Customer) error
	Delete(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the aggregate mutations that must be serialized per
// customer row.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Customer, error)
	UpdateAggregate(ctx context.Context, c Customer) error
}

// ListRequest filters customer listings. The score bounds and overdue flag
// exist so the portfolio reporter can narrow the source query instead of
// folding rows it would then discard.
type ListRequest struct {
	Search            string
	ActiveCreditsOnly bool
	OverdueOnly       bool
	ScoreMin          *int
	ScoreMax          *int
	Limit             int
	Offset            int
}
