package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, fullname, phone, social_media, social_media_name, dob, address, is_active,
active_credits, pending_payments_amount, has_overdue_credits, credit_score, sale_ids, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.SocialMedia, &c.SocialMediaName, &c.DOB, &c.Address, &c.IsActive,
		&c.ActiveCredits, &c.PendingPaymentsAmount, &c.HasOverdueCredits, &c.CreditScore, &c.SaleIDs, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer, mapping the phone unique constraint to
// ErrDuplicatePhone.
func (r *Repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO customers
(fullname, phone, social_media, social_media_name, dob, address, is_active, active_credits, pending_payments_amount, has_overdue_credits, credit_score, sale_ids, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now()) RETURNING id`,
		c.FullName, c.Phone, c.SocialMedia, c.SocialMediaName, c.DOB, c.Address, c.IsActive,
		c.ActiveCredits, c.PendingPaymentsAmount, c.HasOverdueCredits, c.CreditScore, c.SaleIDs).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicatePhone
		}
		return 0, err
	}
	return id, nil
}

// Get loads one customer by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

// List returns customers matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	search := "%" + req.Search + "%"

	const filter = `($1 = '%%' OR fullname ILIKE $1 OR phone ILIKE $1)
AND (NOT $2 OR active_credits > 0) AND (NOT $3 OR has_overdue_credits)
AND ($4::int IS NULL OR credit_score >= $4) AND ($5::int IS NULL OR credit_score < $5)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+filter,
		search, req.ActiveCreditsOnly, req.OverdueOnly, req.ScoreMin, req.ScoreMax).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+filter+`
ORDER BY fullname LIMIT $6 OFFSET $7`, search, req.ActiveCreditsOnly, req.OverdueOnly, req.ScoreMin, req.ScoreMax, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update writes profile fields.
func (r *Repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET fullname=$2, phone=$3, social_media=$4, social_media_name=$5, dob=$6, address=$7, is_active=$8, updated_at=now() WHERE id=$1`,
		c.ID, c.FullName, c.Phone, c.SocialMedia, c.SocialMediaName, c.DOB, c.Address, c.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps aggregate mutations in a repeatable-read transaction.
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

// GetForUpdate locks the customer row for aggregate mutation.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(t.tx.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1 FOR UPDATE`, id))
}

// UpdateAggregate writes the derived credit aggregate fields.
func (t *txRepo) UpdateAggregate(ctx context.Context, c Customer) error {
	_, err := t.tx.Exec(ctx, `UPDATE customers SET active_credits=$2, pending_payments_amount=$3, has_overdue_credits=$4, credit_score=$5, sale_ids=$6, updated_at=now() WHERE id=$1`,
		c.ID, c.ActiveCredits, c.PendingPaymentsAmount, c.HasOverdueCredits, c.CreditScore, c.SaleIDs)
	return err
}
