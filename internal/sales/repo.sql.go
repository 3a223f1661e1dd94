package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const saleColumns = `id, customer_id, customer_name, seller_id, payment_type, deposit, deposit_date,
total_amount, paid_amount, pending_amount, installment, total_interest, interest_paid, interest_pending,
credit_start_date, credit_end_date, next_payment_date, last_payment_date, status, overdue_by_periods,
version, created_at, updated_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.SellerID, &s.PaymentType, &s.Deposit, &s.DepositDate,
		&s.TotalAmount, &s.PaidAmount, &s.PendingAmount, &s.Installment, &s.TotalInterest, &s.InterestPaid, &s.InterestPending,
		&s.CreditStartDate, &s.CreditEndDate, &s.NextPaymentDate, &s.LastPaymentDate, &s.Status, &s.OverdueByPeriods,
		&s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persists the sale, its items and its opening payment in one
// transaction.
func (r *Repository) Create(ctx context.Context, sale Sale) (*Sale, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `INSERT INTO sales
(customer_id, customer_name, seller_id, payment_type, deposit, deposit_date, total_amount, paid_amount,
pending_amount, installment, total_interest, interest_paid, interest_pending, credit_start_date,
credit_end_date, next_payment_date, status, overdue_by_periods, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1, now(), now()) RETURNING id`,
		sale.CustomerID, sale.CustomerName, sale.SellerID, sale.PaymentType, sale.Deposit, sale.DepositDate,
		sale.TotalAmount, sale.PaidAmount, sale.PendingAmount, sale.Installment, sale.TotalInterest,
		sale.InterestPaid, sale.InterestPending, sale.CreditStartDate, sale.CreditEndDate,
		sale.NextPaymentDate, sale.Status, sale.OverdueByPeriods).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
		_, err = tx.Exec(ctx, `INSERT INTO sale_items (sale_id, product_id, product_name, quantity, sale_price, total_price, stock_lot_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sale.ID, item.ProductID, item.ProductName, item.Quantity, item.SalePrice, item.TotalPrice, item.StockLotID)
		if err != nil {
			return nil, err
		}
	}
	for _, payment := range sale.Payments {
		if err := insertPayment(ctx, tx, sale.ID, payment); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	sale.Version = 1
	return &sale, nil
}

// Get loads one sale with its items and payments.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *Repository) loadChildren(ctx context.Context, sale *Sale) error {
	rows, err := r.pool.Query(ctx, `SELECT product_id, product_name, quantity, sale_price, total_price, stock_lot_id
FROM sale_items WHERE sale_id=$1 ORDER BY id`, sale.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.SalePrice, &item.TotalPrice, &item.StockLotID); err != nil {
			return err
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	payRows, err := r.pool.Query(ctx, `SELECT id, amount, date, method, received_by
FROM sale_payments WHERE sale_id=$1 ORDER BY date, id`, sale.ID)
	if err != nil {
		return err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p Payment
		if err := payRows.Scan(&p.ID, &p.Amount, &p.Date, &p.Method, &p.ReceivedBy); err != nil {
			return err
		}
		sale.Payments = append(sale.Payments, p)
	}
	return payRows.Err()
}

// List returns sales matching the filter plus the total count. Children are
// not loaded for listings.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Sale, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales
WHERE ($1::bigint IS NULL OR customer_id=$1) AND ($2::text IS NULL OR payment_type=$2) AND ($3::text IS NULL OR status=$3)`,
		req.CustomerID, req.PaymentType, req.Status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE ($1::bigint IS NULL OR customer_id=$1) AND ($2::text IS NULL OR payment_type=$2) AND ($3::text IS NULL OR status=$3)
ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		req.CustomerID, req.PaymentType, req.Status, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByCustomer returns a customer's sales, optionally credit sales only.
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, creditOnly bool) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE customer_id=$1 AND (NOT $2 OR payment_type='credit') ORDER BY created_at`, customerID, creditOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

// ListCreditForReport returns the customer's unsettled credit sales narrowed
// by the portfolio filters.
func (r *Repository) ListCreditForReport(ctx context.Context, customerID int64, status *Status, minOverdueBy int) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE customer_id=$1 AND payment_type='credit' AND status <> 'paid'
AND ($2::text IS NULL OR status=$2) AND overdue_by_periods >= $3
ORDER BY created_at`, customerID, status, minOverdueBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

type rowExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func execSaleUpdate(ctx context.Context, db rowExecer, sale Sale) error {
	tag, err := db.Exec(ctx, `UPDATE sales SET paid_amount=$2, pending_amount=$3, next_payment_date=$4,
last_payment_date=$5, status=$6, overdue_by_periods=$7, interest_paid=$8, interest_pending=$9,
version=version+1, updated_at=now()
WHERE id=$1 AND version=$10`,
		sale.ID, sale.PaidAmount, sale.PendingAmount, sale.NextPaymentDate,
		sale.LastPaymentDate, sale.Status, sale.OverdueByPeriods, sale.InterestPaid, sale.InterestPending, sale.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, saleID int64, payment Payment) error {
	_, err := tx.Exec(ctx, `INSERT INTO sale_payments (id, sale_id, amount, date, method, received_by)
VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, saleID, payment.Amount, payment.Date, payment.Method, payment.ReceivedBy)
	return err
}

// Update writes the mutable ledger fields guarded by the loaded version.
func (r *Repository) Update(ctx context.Context, sale Sale) (*Sale, error) {
	if err := execSaleUpdate(ctx, r.pool, sale); err != nil {
		return nil, err
	}
	sale.Version++
	return &sale, nil
}

// RecordPayment stores the payment row and the rebalanced ledger fields in
// one transaction. The version guard runs first, so a stale recording leaves
// no payment row behind.
func (r *Repository) RecordPayment(ctx context.Context, sale Sale, payment Payment) (*Sale, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := execSaleUpdate(ctx, tx, sale); err != nil {
		return nil, err
	}
	if err := insertPayment(ctx, tx, sale.ID, payment); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	sale.Version++
	return &sale, nil
}

// ListDueCredit returns outstanding credit sales whose next payment date is
// before the cutoff.
func (r *Repository) ListDueCredit(ctx context.Context, before time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE payment_type='credit' AND status IN ('pending','overdue') AND pending_amount > 0 AND next_payment_date < $1
ORDER BY next_payment_date`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}
