package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service"
	"github.com/dkowalski/libris-api/internal/store"
)

// fakePasswordHasher marks hashes deterministically so tests can assert the
// stored value without running bcrypt.
type fakePasswordHasher struct{}

func (fakePasswordHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

type userServiceFixture struct {
	svc   service.UserService
	users *fakeUserStore
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()
	f := &userServiceFixture{users: newFakeUserStore()}
	f.svc = service.NewUserService(f.users, fakePasswordHasher{}, fakeTransactor{}, testLogger())
	return f
}

func TestUserService_RegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newUserServiceFixture(t)

		user, err := f.svc.RegisterUser(ctx, "reader", "reader@example.com", "password1")
		require.NoError(t, err)

		assert.Equal(t, "reader", user.Username)
		assert.Equal(t, domain.RoleMember, user.Role)
		assert.True(t, user.IsActive)
		assert.Equal(t, "hashed:password1", user.HashedPassword)
		assert.Empty(t, user.Password, "plaintext must not survive registration")
	})

	t.Run("email is optional", func(t *testing.T) {
		f := newUserServiceFixture(t)

		user, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
		require.NoError(t, err)
		assert.Empty(t, user.Email)
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newUserServiceFixture(t)

		_, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
		require.NoError(t, err)

		_, err = f.svc.RegisterUser(ctx, "reader", "", "password2")
		assert.ErrorIs(t, err, store.ErrUsernameExists)
	})

	t.Run("invalid username", func(t *testing.T) {
		f := newUserServiceFixture(t)

		_, err := f.svc.RegisterUser(ctx, "1reader", "", "password1")
		assert.ErrorIs(t, err, domain.ErrInvalidUsername)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newUserServiceFixture(t)

		_, err := f.svc.RegisterUser(ctx, "reader", "", "password")
		assert.ErrorIs(t, err, domain.ErrPasswordTooSimple)
	})
}

func TestUserService_UpdateUserPassword(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture(t)

	user, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		require.NoError(t, f.svc.UpdateUserPassword(ctx, user.ID, "newsecret2"))

		stored, err := f.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "hashed:newsecret2", stored.HashedPassword)
	})

	t.Run("rejects weak password", func(t *testing.T) {
		err := f.svc.UpdateUserPassword(ctx, user.ID, "short")
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	})

	t.Run("user not found", func(t *testing.T) {
		err := f.svc.UpdateUserPassword(ctx, uuid.New(), "newsecret2")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUserService_SetUserRole(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture(t)

	user, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
	require.NoError(t, err)

	t.Run("promote to librarian", func(t *testing.T) {
		require.NoError(t, f.svc.SetUserRole(ctx, user.ID, domain.RoleLibrarian))

		stored, err := f.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleLibrarian, stored.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		err := f.svc.SetUserRole(ctx, user.ID, domain.Role("superuser"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestUserService_SetUserActive(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture(t)

	user, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SetUserActive(ctx, user.ID, false))
	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, f.svc.SetUserActive(ctx, user.ID, true))
	stored, err = f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newUserServiceFixture(t)

	user, err := f.svc.RegisterUser(ctx, "reader", "", "password1")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, user.ID))

	_, err = f.svc.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
