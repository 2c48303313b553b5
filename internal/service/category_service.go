package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/store"
)

// CategoryService provides catalog operations for categories.
type CategoryService interface {
	// CreateCategory creates a new category. The name is unique.
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)

	// GetCategory retrieves a category by ID
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// ListCategories retrieves all categories
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	// UpdateCategory renames an existing category
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error)

	// DeleteCategory removes a category. Fails with store.ErrInvalidEntity
	// while books still reference the category.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CategoryServiceImpl implements the CategoryService interface
type CategoryServiceImpl struct {
	categoryStore store.CategoryStore
	tx            store.Transactor
	logger        *slog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryStore store.CategoryStore,
	tx store.Transactor,
	logger *slog.Logger,
) *CategoryServiceImpl {
	return &CategoryServiceImpl{
		categoryStore: categoryStore,
		tx:            tx,
		logger:        logger.With("component", "category_service"),
	}
}

var _ CategoryService = (*CategoryServiceImpl)(nil)

// CreateCategory creates a new category
func (s *CategoryServiceImpl) CreateCategory(
	ctx context.Context,
	name string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(name)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.categoryStore.WithTx(tx).Create(ctx, category)
	})
	if err != nil {
		if errors.Is(err, store.ErrCategoryNameExists) {
			s.logger.Debug("attempted to create duplicate category",
				"name", name)
		} else {
			s.logger.Error("failed to create category",
				"error", err,
				"name", name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info("category created",
		"category_id", category.ID,
		"name", category.Name)
	return category, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryServiceImpl) GetCategory(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Category, error) {
	category, err := s.categoryStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrCategoryNotFound) {
			s.logger.Error("failed to retrieve category",
				"error", err,
				"category_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return category, nil
}

// ListCategories retrieves all categories
func (s *CategoryServiceImpl) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory renames an existing category
func (s *CategoryServiceImpl) UpdateCategory(
	ctx context.Context,
	id uuid.UUID,
	name string,
) (*domain.Category, error) {
	var category *domain.Category

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.categoryStore.WithTx(tx)

		var err error
		category, err = txStore.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to retrieve category for update: %w", err)
		}

		category.Name = name
		return txStore.Update(ctx, category)
	})

	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) ||
			errors.Is(err, store.ErrCategoryNameExists) {
			s.logger.Debug("category update rejected",
				"error", err,
				"category_id", id)
		} else {
			s.logger.Error("failed to update category",
				"error", err,
				"category_id", id)
		}
		return nil, err
	}

	s.logger.Info("category updated",
		"category_id", id,
		"name", name)
	return category, nil
}

// DeleteCategory removes a category
func (s *CategoryServiceImpl) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.categoryStore.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) || errors.Is(err, store.ErrInvalidEntity) {
			s.logger.Debug("category deletion rejected",
				"error", err,
				"category_id", id)
		} else {
			s.logger.Error("failed to delete category",
				"error", err,
				"category_id", id)
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.logger.Info("category deleted", "category_id", id)
	return nil
}
