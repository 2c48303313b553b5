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

// BookAvailability summarizes how many copies of a book are currently on the
// shelf.
type BookAvailability struct {
	Book           *domain.Book      `json:"book"`
	AvailableCount int64             `json:"available_count"`
	Copies         []*domain.BookCopy `json:"copies"`
}

// BookCopyService provides catalog operations for physical book copies.
type BookCopyService interface {
	// CreateCopy registers a new physical copy of an existing book
	CreateCopy(ctx context.Context, bookID uuid.UUID, location string) (*domain.BookCopy, error)

	// GetCopy retrieves a copy by ID
	GetCopy(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error)

	// ListCopies retrieves all copies
	ListCopies(ctx context.Context) ([]*domain.BookCopy, error)

	// UpdateCopy changes a copy's book, location, or availability. Marking a
	// copy available while it has an active loan fails with
	// ErrCopyHasActiveLoan; the loan engine owns that transition.
	UpdateCopy(ctx context.Context, id uuid.UUID, bookID uuid.UUID, location string, available bool) (*domain.BookCopy, error)

	// DeleteCopy removes a copy by ID
	DeleteCopy(ctx context.Context, id uuid.UUID) error

	// AvailableCopies lists available copies grouped per book with counts.
	AvailableCopies(ctx context.Context) ([]*BookAvailability, error)
}

// BookCopyServiceImpl implements the BookCopyService interface
type BookCopyServiceImpl struct {
	copyStore store.BookCopyStore
	bookStore store.BookStore
	loanStore store.LoanStore
	tx        store.Transactor
	logger    *slog.Logger
}

// NewBookCopyService creates a new BookCopyService
func NewBookCopyService(
	copyStore store.BookCopyStore,
	bookStore store.BookStore,
	loanStore store.LoanStore,
	tx store.Transactor,
	logger *slog.Logger,
) *BookCopyServiceImpl {
	return &BookCopyServiceImpl{
		copyStore: copyStore,
		bookStore: bookStore,
		loanStore: loanStore,
		tx:        tx,
		logger:    logger.With("component", "book_copy_service"),
	}
}

var _ BookCopyService = (*BookCopyServiceImpl)(nil)

// CreateCopy registers a new physical copy of an existing book
func (s *BookCopyServiceImpl) CreateCopy(
	ctx context.Context,
	bookID uuid.UUID,
	location string,
) (*domain.BookCopy, error) {
	copy, err := domain.NewBookCopy(bookID, location)
	if err != nil {
		return nil, err
	}

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.bookStore.WithTx(tx).GetByID(ctx, bookID); err != nil {
			return fmt.Errorf("failed to verify book: %w", err)
		}
		return s.copyStore.WithTx(tx).Create(ctx, copy)
	})
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			s.logger.Debug("attempted to create copy of missing book",
				"book_id", bookID)
		} else {
			s.logger.Error("failed to create book copy",
				"error", err,
				"book_id", bookID)
		}
		return nil, fmt.Errorf("failed to create book copy: %w", err)
	}

	s.logger.Info("book copy created",
		"book_copy_id", copy.ID,
		"book_id", bookID)
	return copy, nil
}

// GetCopy retrieves a copy by ID
func (s *BookCopyServiceImpl) GetCopy(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error) {
	copy, err := s.copyStore.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrBookCopyNotFound) {
			s.logger.Error("failed to retrieve book copy",
				"error", err,
				"book_copy_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve book copy: %w", err)
	}
	return copy, nil
}

// ListCopies retrieves all copies
func (s *BookCopyServiceImpl) ListCopies(ctx context.Context) ([]*domain.BookCopy, error) {
	copies, err := s.copyStore.List(ctx)
	if err != nil {
		s.logger.Error("failed to list book copies", "error", err)
		return nil, fmt.Errorf("failed to list book copies: %w", err)
	}
	return copies, nil
}

// UpdateCopy changes a copy's book, location, or availability.
func (s *BookCopyServiceImpl) UpdateCopy(
	ctx context.Context,
	id uuid.UUID,
	bookID uuid.UUID,
	location string,
	available bool,
) (*domain.BookCopy, error) {
	var copy *domain.BookCopy

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		copies := s.copyStore.WithTx(tx)
		loans := s.loanStore.WithTx(tx)

		var err error
		copy, err = copies.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock book copy: %w", err)
		}

		if bookID != copy.BookID {
			if _, err := s.bookStore.WithTx(tx).GetByID(ctx, bookID); err != nil {
				return fmt.Errorf("failed to verify book: %w", err)
			}
		}

		// A copy with an active loan stays unavailable until the loan closes.
		if available {
			if _, err := loans.GetActiveByCopyID(ctx, id); err == nil {
				return ErrCopyHasActiveLoan
			} else if !errors.Is(err, store.ErrLoanNotFound) {
				return fmt.Errorf("failed to check active loan: %w", err)
			}
		}

		copy.BookID = bookID
		copy.Location = location
		copy.Available = available
		return copies.Update(ctx, copy)
	})

	if err != nil {
		if errors.Is(err, store.ErrBookCopyNotFound) ||
			errors.Is(err, store.ErrBookNotFound) ||
			errors.Is(err, ErrCopyHasActiveLoan) {
			s.logger.Debug("book copy update rejected",
				"error", err,
				"book_copy_id", id)
		} else {
			s.logger.Error("failed to update book copy",
				"error", err,
				"book_copy_id", id)
		}
		return nil, err
	}

	s.logger.Info("book copy updated", "book_copy_id", id)
	return copy, nil
}

// DeleteCopy removes a copy by ID. A copy with an active loan cannot be
// deleted; the loan has to be returned first.
func (s *BookCopyServiceImpl) DeleteCopy(ctx context.Context, id uuid.UUID) error {
	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		copies := s.copyStore.WithTx(tx)
		loans := s.loanStore.WithTx(tx)

		if _, err := copies.GetForUpdate(ctx, id); err != nil {
			return fmt.Errorf("failed to lock book copy: %w", err)
		}

		if _, err := loans.GetActiveByCopyID(ctx, id); err == nil {
			return ErrCopyHasActiveLoan
		} else if !errors.Is(err, store.ErrLoanNotFound) {
			return fmt.Errorf("failed to check active loan: %w", err)
		}

		return copies.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrCopyHasActiveLoan) {
			s.logger.Debug("attempted to delete copy with active loan",
				"book_copy_id", id)
			return err
		}
		if errors.Is(err, store.ErrBookCopyNotFound) {
			s.logger.Debug("attempted to delete non-existent copy",
				"book_copy_id", id)
		} else {
			s.logger.Error("failed to delete book copy",
				"error", err,
				"book_copy_id", id)
		}
		return fmt.Errorf("failed to delete book copy: %w", err)
	}

	s.logger.Info("book copy deleted", "book_copy_id", id)
	return nil
}

// AvailableCopies lists available copies grouped per book with counts.
func (s *BookCopyServiceImpl) AvailableCopies(ctx context.Context) ([]*BookAvailability, error) {
	copies, err := s.copyStore.ListAvailable(ctx)
	if err != nil {
		s.logger.Error("failed to list available copies", "error", err)
		return nil, fmt.Errorf("failed to list available copies: %w", err)
	}

	grouped := map[uuid.UUID]*BookAvailability{}
	order := []uuid.UUID{}
	for _, copy := range copies {
		entry, ok := grouped[copy.BookID]
		if !ok {
			book, err := s.bookStore.GetByID(ctx, copy.BookID)
			if err != nil {
				s.logger.Error("failed to resolve book for available copy",
					"error", err,
					"book_id", copy.BookID)
				return nil, fmt.Errorf("failed to resolve book: %w", err)
			}
			entry = &BookAvailability{Book: book}
			grouped[copy.BookID] = entry
			order = append(order, copy.BookID)
		}
		entry.Copies = append(entry.Copies, copy)
		entry.AvailableCount++
	}

	result := make([]*BookAvailability, 0, len(order))
	for _, bookID := range order {
		result = append(result, grouped[bookID])
	}
	return result, nil
}
