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

// AuthorService provides catalog operations for authors.
type AuthorService interface {
	// CreateAuthor creates a new author with the given name
	CreateAuthor(ctx context.Context, name string) (*domain.Author, error)

	// GetAuthor retrieves an author by ID
	GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// ListAuthors retrieves all authors
	ListAuthors(ctx context.Context) ([]*domain.Author, error)

	// UpdateAuthor renames an existing author
	UpdateAuthor(ctx context.Context, id uuid.UUID, name string) (*domain.Author, error)

	// DeleteAuthor removes an author. Fails with store.ErrInvalidEntity while
	// books still reference the author.
	DeleteAuthor(ctx context.Context, id uuid.UUID) error
}

// AuthorServiceImpl implements the AuthorService interface
type AuthorServiceImpl struct {
	authorStore store.AuthorStore
	tx          store.Transactor
	logger      *slog.Logger
}

// NewAuthorService creates a new AuthorService
func NewAuthorService(
	authorStore store.AuthorStore,
	tx store.Transactor,
	logger *slog.Logger,
) *AuthorServiceImpl {
	return &AuthorServiceImpl{
		authorStore: authorStore,
		tx:          tx,
		logger:      logger.With("component", "author_service"),
	}
}

var _ AuthorService = (*AuthorServiceImpl)(nil)

// CreateAuthor creates a new author with the given name
func (s *AuthorServiceImpl) CreateAuthor(ctx context.Context, name string) (*domain.Author, error) {
	author, err := domain.NewAuthor(name)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.authorStore.WithTx(tx).Create(ctx, author)
	})
	if err != nil {
		s.logger.Error("failed to create author",
			"error", err,
			"name", name)
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	s.logger.Info("author created",
		"author_id", author.ID,
		"name", author.Name)
	return author, nil
}

// GetAuthor retrieves an author by ID
func (s *AuthorServiceImpl) GetAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	author, err := s.authorStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrAuthorNotFound) {
			s.logger.Error("failed to retrieve author",
				"error", err,
				"author_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve author: %w", err)
	}
	return author, nil
}

// ListAuthors retrieves all authors
func (s *AuthorServiceImpl) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.authorStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list authors", "error", err)
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	return authors, nil
}

// UpdateAuthor renames an existing author
func (s *AuthorServiceImpl) UpdateAuthor(
	ctx context.Context,
	id uuid.UUID,
	name string,
) (*domain.Author, error) {
	var author *domain.Author

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.authorStore.WithTx(tx)

		var err error
		author, err = txStore.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to retrieve author for update: %w", err)
		}

		author.Name = name
		return txStore.Update(ctx, author)
	})

	if err != nil {
		if !errors.Is(err, store.ErrAuthorNotFound) {
			s.logger.Error("failed to update author",
				"error", err,
				"author_id", id)
		}
		return nil, err
	}

	s.logger.Info("author updated",
		"author_id", id,
		"name", name)
	return author, nil
}

// DeleteAuthor removes an author
func (s *AuthorServiceImpl) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.authorStore.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrAuthorNotFound) || errors.Is(err, store.ErrInvalidEntity) {
			s.logger.Debug("author deletion rejected",
				"error", err,
				"author_id", id)
		} else {
			s.logger.Error("failed to delete author",
				"error", err,
				"author_id", id)
		}
		return fmt.Errorf("failed to delete author: %w", err)
	}

	s.logger.Info("author deleted", "author_id", id)
	return nil
}
