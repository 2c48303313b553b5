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

// BookService provides catalog operations for books.
//
// Titles are unique ignoring case and surrounding whitespace. Creation and
// update verify the referenced author and category exist; deletion is refused
// while copies of the book exist.
type BookService interface {
	// CreateBook creates a new book
	CreateBook(ctx context.Context, title string, authorID, categoryID uuid.UUID) (*domain.Book, error)

	// GetBook retrieves a book by ID
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// ListBooks retrieves all books
	ListBooks(ctx context.Context) ([]*domain.Book, error)

	// UpdateBook modifies a book's title, author, or category
	UpdateBook(ctx context.Context, id uuid.UUID, title string, authorID, categoryID uuid.UUID) (*domain.Book, error)

	// DeleteBook removes a book. Returns ErrBookHasCopies while copies exist.
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// BookServiceImpl implements the BookService interface
type BookServiceImpl struct {
	bookStore     store.BookStore
	authorStore   store.AuthorStore
	categoryStore store.CategoryStore
	tx            store.Transactor
	logger        *slog.Logger
}

// NewBookService creates a new BookService
func NewBookService(
	bookStore store.BookStore,
	authorStore store.AuthorStore,
	categoryStore store.CategoryStore,
	tx store.Transactor,
	logger *slog.Logger,
) *BookServiceImpl {
	return &BookServiceImpl{
		bookStore:     bookStore,
		authorStore:   authorStore,
		categoryStore: categoryStore,
		tx:            tx,
		logger:        logger.With("component", "book_service"),
	}
}

var _ BookService = (*BookServiceImpl)(nil)

// CreateBook creates a new book
func (s *BookServiceImpl) CreateBook(
	ctx context.Context,
	title string,
	authorID, categoryID uuid.UUID,
) (*domain.Book, error) {
	book, err := domain.NewBook(title, authorID, categoryID)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.checkReferences(ctx, tx, authorID, categoryID); err != nil {
			return err
		}
		return s.bookStore.WithTx(tx).Create(ctx, book)
	})
	if err != nil {
		if errors.Is(err, store.ErrBookTitleExists) {
			s.logger.Debug("attempted to create duplicate book title",
				"title", title)
		} else {
			s.logger.Error("failed to create book",
				"error", err,
				"title", title)
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info("book created",
		"book_id", book.ID,
		"title", book.Title)
	return book, nil
}

// GetBook retrieves a book by ID
func (s *BookServiceImpl) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book, err := s.bookStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrBookNotFound) {
			s.logger.Error("failed to retrieve book",
				"error", err,
				"book_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve book: %w", err)
	}
	return book, nil
}

// ListBooks retrieves all books
func (s *BookServiceImpl) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.bookStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list books", "error", err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// UpdateBook modifies a book's title, author, or category
func (s *BookServiceImpl) UpdateBook(
	ctx context.Context,
	id uuid.UUID,
	title string,
	authorID, categoryID uuid.UUID,
) (*domain.Book, error) {
	var book *domain.Book

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.bookStore.WithTx(tx)

		var err error
		book, err = txStore.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to retrieve book for update: %w", err)
		}

		if err := s.checkReferences(ctx, tx, authorID, categoryID); err != nil {
			return err
		}

		book.Title = title
		book.AuthorID = authorID
		book.CategoryID = categoryID
		return txStore.Update(ctx, book)
	})

	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) || errors.Is(err, store.ErrBookTitleExists) {
			s.logger.Debug("book update rejected",
				"error", err,
				"book_id", id)
		} else {
			s.logger.Error("failed to update book",
				"error", err,
				"book_id", id)
		}
		return nil, err
	}

	s.logger.Info("book updated",
		"book_id", id,
		"title", title)
	return book, nil
}

// DeleteBook removes a book unless copies of it still exist.
func (s *BookServiceImpl) DeleteBook(ctx context.Context, id uuid.UUID) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.bookStore.WithTx(tx)

		count, err := txStore.CountCopies(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count copies: %w", err)
		}
		if count > 0 {
			return ErrBookHasCopies
		}

		return txStore.Delete(ctx, id)
	})

	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) || errors.Is(err, ErrBookHasCopies) {
			s.logger.Debug("book deletion rejected",
				"error", err,
				"book_id", id)
		} else {
			s.logger.Error("failed to delete book",
				"error", err,
				"book_id", id)
		}
		return err
	}

	s.logger.Info("book deleted", "book_id", id)
	return nil
}

// checkReferences verifies the author and category a book points at exist.
func (s *BookServiceImpl) checkReferences(
	ctx context.Context,
	tx *sql.Tx,
	authorID, categoryID uuid.UUID,
) error {
	if _, err := s.authorStore.WithTx(tx).GetByID(ctx, authorID); err != nil {
		return fmt.Errorf("failed to verify author: %w", err)
	}
	if _, err := s.categoryStore.WithTx(tx).GetByID(ctx, categoryID); err != nil {
		return fmt.Errorf("failed to verify category: %w", err)
	}
	return nil
}
