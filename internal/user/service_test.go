package user

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockRepository struct {
	CreateFn     func(ctx context.Context, u *User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmailFn func(ctx context.Context, email string) (*User, error)
	UpdateFn     func(ctx context.Context, u *User) error
}

func (m *mockRepository) Create(ctx context.Context, u *User) error { return m.CreateFn(ctx, u) }
func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return m.GetByEmailFn(ctx, email)
}
func (m *mockRepository) Update(ctx context.Context, u *User) error { return m.UpdateFn(ctx, u) }

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestService_CreateUser(t *testing.T) {
	t.Run("normalizes email and hashes password", func(t *testing.T) {
		var created *User
		repo := &mockRepository{
			CreateFn: func(ctx context.Context, u *User) error {
				created = u
				return nil
			},
		}
		svc := NewService(repo)

		u, err := svc.CreateUser(context.Background(), "  Jane Doe  ", " Jane@Example.COM", "secret password", RoleCustomer)

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, "Jane Doe", u.Name)
		assert.Equal(t, "jane@example.com", u.Email)
		assert.Equal(t, RoleCustomer, u.Role)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret password")))
	})

	t.Run("empty password", func(t *testing.T) {
		svc := NewService(&mockRepository{})

		_, err := svc.CreateUser(context.Background(), "Jane", "jane@example.com", "", RoleCustomer)
		assert.Error(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := &mockRepository{
			CreateFn: func(ctx context.Context, u *User) error { return ErrEmailExists },
		}
		svc := NewService(repo)

		_, err := svc.CreateUser(context.Background(), "Jane", "jane@example.com", "secret password", RoleCustomer)
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())

	existing := func() *User {
		return &User{
			ID:           userID,
			Name:         "Jane Doe",
			Email:        "jane@example.com",
			PasswordHash: "old-hash",
			Role:         RoleCustomer,
		}
	}

	t.Run("keeps the password when none is given", func(t *testing.T) {
		repo := &mockRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*User, error) { return existing(), nil },
			UpdateFn:  func(ctx context.Context, u *User) error { return nil },
		}
		svc := NewService(repo)

		u, err := svc.UpdateProfile(context.Background(), userID, "Jane Smith", "Jane.Smith@Example.com", nil)

		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", u.Name)
		assert.Equal(t, "jane.smith@example.com", u.Email)
		assert.Equal(t, "old-hash", u.PasswordHash)
	})

	t.Run("rehashes when a new password is given", func(t *testing.T) {
		repo := &mockRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*User, error) { return existing(), nil },
			UpdateFn:  func(ctx context.Context, u *User) error { return nil },
		}
		svc := NewService(repo)

		password := "brand new password"
		u, err := svc.UpdateProfile(context.Background(), userID, "Jane Doe", "jane@example.com", &password)

		require.NoError(t, err)
		assert.NotEqual(t, "old-hash", u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)))
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := &mockRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*User, error) { return nil, ErrNotFound },
		}
		svc := NewService(repo)

		_, err := svc.UpdateProfile(context.Background(), userID, "Jane", "jane@example.com", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		repo := &mockRepository{
			GetByIDFn: func(ctx context.Context, id uuid.UUID) (*User, error) { return existing(), nil },
			UpdateFn:  func(ctx context.Context, u *User) error { return ErrEmailExists },
		}
		svc := NewService(repo)

		_, err := svc.UpdateProfile(context.Background(), userID, "Jane", "taken@example.com", nil)
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}
