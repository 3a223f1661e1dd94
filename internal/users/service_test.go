package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abasto-pos/abasto-pos/internal/shared"
)

type memoryRepo struct {
	nextID int64
	users  map[int64]*User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, users: map[int64]*User{}}
}

func (r *memoryRepo) Create(_ context.Context, user User) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = &user
	return user.ID, nil
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) List(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo())

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email:    "vendedor@abasto.test",
		Name:     "Vendedor Uno",
		Password: "secreto123",
	})
	require.NoError(t, err)
	require.NotEqual(t, "secreto123", user.PasswordHash)
	require.True(t, user.IsActive)
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{Email: "v@abasto.test", Name: "V", Password: "secreto123"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "v@abasto.test", "secreto123")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate(ctx, "v@abasto.test", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@abasto.test", "secreto123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	_, err = svc.Authenticate(ctx, "v@abasto.test", "secreto123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "dup@abasto.test", Name: "A", Password: "x12345678"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateUserInput{Email: "dup@abasto.test", Name: "B", Password: "y12345678"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}
