package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service/auth"
	"github.com/dkowalski/libris-api/internal/store"
)

// UserService provides user registration and administration operations.
type UserService interface {
	// RegisterUser creates a new active member account with a hashed
	// password.
	RegisterUser(ctx context.Context, username, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByUsername retrieves a user by their username
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers retrieves all users
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// UpdateUserEmail updates a user's email address
	// Note: This uses the pattern of first retrieving the full user, then
	// updating the specific field, and finally passing the complete user
	// object back to the store layer
	UpdateUserEmail(ctx context.Context, userID uuid.UUID, newEmail string) error

	// UpdateUserPassword updates a user's password
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// SetUserRole changes a user's role
	SetUserRole(ctx context.Context, userID uuid.UUID, role domain.Role) error

	// SetUserActive activates or deactivates an account. Deactivated users
	// cannot authenticate but their loan history is kept.
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error

	// DeleteUser deletes a user by their ID
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	tx        store.Transactor
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	tx store.Transactor,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		tx:        tx,
		logger:    logger.With("component", "user_service"),
	}
}

var _ UserService = (*UserServiceImpl)(nil)

// RegisterUser creates a new active member account.
// Uses a transaction to ensure atomicity of the operation
func (s *UserServiceImpl) RegisterUser(
	ctx context.Context,
	username, email, password string,
) (*domain.User, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		s.logger.Debug("failed to create user object",
			"error", err,
			"username", username)
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"username", username)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})

	if err != nil {
		if store.IsDuplicateError(err) {
			s.logger.Debug("attempted to register duplicate user",
				"username", username)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"username", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", user.Username)

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username
func (s *UserServiceImpl) GetUserByUsername(
	ctx context.Context,
	username string,
) (*domain.User, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by username",
				"username", username)
		} else {
			s.logger.Error("failed to retrieve user by username",
				"error", err,
				"username", username)
		}
		return nil, fmt.Errorf("failed to retrieve user by username: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserEmail updates a user's email address
// Following the pattern of getting the complete user first, then updating the
// specific field. Uses a transaction to ensure atomicity of the operation
func (s *UserServiceImpl) UpdateUserEmail(
	ctx context.Context,
	userID uuid.UUID,
	newEmail string,
) error {
	return s.updateUser(ctx, userID, "email", func(user *domain.User) error {
		user.Email = newEmail
		return nil
	})
}

// UpdateUserPassword updates a user's password
func (s *UserServiceImpl) UpdateUserPassword(
	ctx context.Context,
	userID uuid.UUID,
	newPassword string,
) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.updateUser(ctx, userID, "password", func(user *domain.User) error {
		user.HashedPassword = hashed
		return nil
	})
}

// SetUserRole changes a user's role
func (s *UserServiceImpl) SetUserRole(
	ctx context.Context,
	userID uuid.UUID,
	role domain.Role,
) error {
	if !role.IsValid() {
		return domain.NewValidationError("role", "invalid role", domain.ErrValidation)
	}

	return s.updateUser(ctx, userID, "role", func(user *domain.User) error {
		user.Role = role
		return nil
	})
}

// SetUserActive activates or deactivates an account.
func (s *UserServiceImpl) SetUserActive(
	ctx context.Context,
	userID uuid.UUID,
	active bool,
) error {
	return s.updateUser(ctx, userID, "is_active", func(user *domain.User) error {
		user.IsActive = active
		return nil
	})
}

// updateUser retrieves the complete user inside a transaction, applies the
// mutation, and writes the full object back.
func (s *UserServiceImpl) updateUser(
	ctx context.Context,
	userID uuid.UUID,
	field string,
	mutate func(user *domain.User) error,
) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for update: %w", err)
		}

		if err := mutate(user); err != nil {
			return err
		}

		if err := txStore.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) || store.IsDuplicateError(err) {
			s.logger.Debug("user update rejected",
				"error", err,
				"user_id", userID,
				"field", field)
		} else {
			s.logger.Error("failed to update user",
				"error", err,
				"user_id", userID,
				"field", field)
		}
		return err
	}

	s.logger.Info("user updated",
		"user_id", userID,
		"field", field)

	return nil
}

// DeleteUser deletes a user by their ID
// Uses a transaction to ensure atomicity of the operation
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, userID)
	})

	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("attempted to delete non-existent user",
				"user_id", userID)
		} else {
			s.logger.Error("failed to delete user",
				"error", err,
				"user_id", userID)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
