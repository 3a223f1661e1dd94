package users

import "context"

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	Create(ctx context.Context, user User) (int64, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
