package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, code, sell_price_cash, sell_price_credit, is_active, created_at, updated_at`

// GetByIDs loads products and their stock lots.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	index := make(map[int64]int)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.SellPriceCash, &p.SellPriceCredit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lotRows, err := r.pool.Query(ctx, `SELECT id, product_id, buy_price, units_available, units_sold, utility, registered_at
FROM stock_lots WHERE product_id = ANY($1) ORDER BY registered_at`, ids)
	if err != nil {
		return nil, err
	}
	defer lotRows.Close()
	for lotRows.Next() {
		var lot StockLot
		if err := lotRows.Scan(&lot.ID, &lot.ProductID, &lot.BuyPrice, &lot.UnitsAvailable, &lot.UnitsSold, &lot.Utility, &lot.RegisteredAt); err != nil {
			return nil, err
		}
		if i, ok := index[lot.ProductID]; ok {
			out[i].Lots = append(out[i].Lots, lot)
		}
	}
	if err := lotRows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns catalogue entries matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	search := "%" + req.Search + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE ($1 = '%%' OR name ILIKE $1 OR code ILIKE $1)`, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
WHERE ($1 = '%%' OR name ILIKE $1 OR code ILIKE $1)
ORDER BY name LIMIT $2 OFFSET $3`, search, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.SellPriceCash, &p.SellPriceCredit, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetLotForUpdate locks one stock lot row.
func (t *txRepo) GetLotForUpdate(ctx context.Context, productID, lotID int64) (StockLot, error) {
	var lot StockLot
	err := t.tx.QueryRow(ctx, `SELECT id, product_id, buy_price, units_available, units_sold, utility, registered_at
FROM stock_lots WHERE id=$1 AND product_id=$2 FOR UPDATE`, lotID, productID).
		Scan(&lot.ID, &lot.ProductID, &lot.BuyPrice, &lot.UnitsAvailable, &lot.UnitsSold, &lot.Utility, &lot.RegisteredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockLot{}, fmt.Errorf("%w: lot %d", ErrLotNotFound, lotID)
	}
	if err != nil {
		return StockLot{}, err
	}
	return lot, nil
}

// UpdateLot writes back lot counters.
func (t *txRepo) UpdateLot(ctx context.Context, lot StockLot) error {
	_, err := t.tx.Exec(ctx, `UPDATE stock_lots SET units_available=$2, units_sold=$3, utility=$4 WHERE id=$1`,
		lot.ID, lot.UnitsAvailable, lot.UnitsSold, lot.Utility)
	return err
}
