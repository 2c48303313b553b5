package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/store"
)

// LoanService manages the loan lifecycle and keeps the book copy availability
// flag consistent with it.
//
// Both mutating operations run inside a single transaction that locks the
// relevant row first, so the check-then-write sequences cannot interleave:
// for any book copy, at most one CreateLoan wins, and a loan's transition to
// returned happens exactly once together with the copy flipping back to
// available.
type LoanService interface {
	// CreateLoan checks out a book copy for a user. A zero loanDate defaults
	// to today and a zero returnDate to loanDate plus the standard loan
	// period.
	// Returns ErrCopyAlreadyOnLoan if the copy has an active loan,
	// ErrCopyNotAvailable if the copy is withdrawn, and
	// store.ErrBookCopyNotFound / store.ErrUserNotFound for missing entities.
	CreateLoan(
		ctx context.Context,
		userID, bookCopyID uuid.UUID,
		loanDate, returnDate time.Time,
	) (*domain.Loan, error)

	// ReturnLoan closes an active loan. Only the borrower may return it.
	// Returns store.ErrLoanNotFound if the loan does not exist, ErrNotOwned
	// if callerID is not the borrower, and ErrAlreadyReturned if the loan is
	// already closed. The copy becomes available again atomically with the
	// loan closing; a copy deleted in the meantime is tolerated.
	ReturnLoan(ctx context.Context, loanID, callerID uuid.UUID) (*domain.Loan, error)

	// GetLoan retrieves a loan visible to the caller. Members see only their
	// own loans; elevated callers see any loan.
	// Returns store.ErrLoanNotFound or ErrNotOwned.
	GetLoan(ctx context.Context, loanID, callerID uuid.UUID, elevated bool) (*domain.Loan, error)

	// GetLoansByUser retrieves all loans for a user, active and returned,
	// newest first.
	GetLoansByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)

	// GetLoanStatistics returns aggregate loan counts.
	GetLoanStatistics(ctx context.Context) (*domain.LoanStatistics, error)
}

// LoanServiceImpl implements the LoanService interface.
type LoanServiceImpl struct {
	tx        store.Transactor
	loanStore store.LoanStore
	copyStore store.BookCopyStore
	userStore store.UserStore
	logger    *slog.Logger
}

// NewLoanService creates a new LoanService.
func NewLoanService(
	tx store.Transactor,
	loanStore store.LoanStore,
	copyStore store.BookCopyStore,
	userStore store.UserStore,
	logger *slog.Logger,
) *LoanServiceImpl {
	return &LoanServiceImpl{
		tx:        tx,
		loanStore: loanStore,
		copyStore: copyStore,
		userStore: userStore,
		logger:    logger.With("component", "loan_service"),
	}
}

var _ LoanService = (*LoanServiceImpl)(nil)

// CreateLoan checks out a book copy for a user.
//
// The copy row is locked before anything else so concurrent attempts on the
// same copy serialize here. The active-loan check and the insert then run
// under the lock; the partial unique index on active loans backstops the
// whole sequence in case a caller bypasses the lock.
func (s *LoanServiceImpl) CreateLoan(
	ctx context.Context,
	userID, bookCopyID uuid.UUID,
	loanDate, returnDate time.Time,
) (*domain.Loan, error) {
	var loan *domain.Loan

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		loans := s.loanStore.WithTx(tx)
		copies := s.copyStore.WithTx(tx)
		users := s.userStore.WithTx(tx)

		if _, err := users.GetByID(ctx, userID); err != nil {
			return fmt.Errorf("failed to verify borrower: %w", err)
		}

		copy, err := copies.GetForUpdate(ctx, bookCopyID)
		if err != nil {
			return fmt.Errorf("failed to lock book copy: %w", err)
		}

		if !copy.Available {
			if _, err := loans.GetActiveByCopyID(ctx, bookCopyID); err == nil {
				return ErrCopyAlreadyOnLoan
			} else if !errors.Is(err, store.ErrLoanNotFound) {
				return fmt.Errorf("failed to check active loan: %w", err)
			}
			return ErrCopyNotAvailable
		}

		loan, err = domain.NewLoan(userID, bookCopyID, loanDate, returnDate)
		if err != nil {
			return err
		}

		if err := loans.Create(ctx, loan); err != nil {
			if errors.Is(err, store.ErrActiveLoanExists) {
				return ErrCopyAlreadyOnLoan
			}
			return fmt.Errorf("failed to create loan: %w", err)
		}

		if err := copies.SetAvailable(ctx, bookCopyID, false); err != nil {
			return fmt.Errorf("failed to mark copy unavailable: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCopyAlreadyOnLoan) {
			s.logger.Debug("loan rejected: copy already on loan",
				"user_id", userID,
				"book_copy_id", bookCopyID)
		} else {
			s.logger.Error("failed to create loan",
				"error", err,
				"user_id", userID,
				"book_copy_id", bookCopyID)
		}
		return nil, err
	}

	s.logger.Info("loan created",
		"loan_id", loan.ID,
		"user_id", userID,
		"book_copy_id", bookCopyID)

	return loan, nil
}

// ReturnLoan closes an active loan and makes the copy available again.
func (s *LoanServiceImpl) ReturnLoan(
	ctx context.Context,
	loanID, callerID uuid.UUID,
) (*domain.Loan, error) {
	var loan *domain.Loan

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		loans := s.loanStore.WithTx(tx)
		copies := s.copyStore.WithTx(tx)

		var err error
		loan, err = loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return fmt.Errorf("failed to lock loan: %w", err)
		}

		if loan.UserID != callerID {
			return ErrNotOwned
		}

		if err := loan.MarkReturned(); err != nil {
			return ErrAlreadyReturned
		}

		if err := loans.Update(ctx, loan); err != nil {
			return fmt.Errorf("failed to update loan: %w", err)
		}

		// The copy may have been deleted since the loan was created; the loan
		// still closes.
		if err := copies.SetAvailable(ctx, loan.BookCopyID, true); err != nil {
			if errors.Is(err, store.ErrBookCopyNotFound) {
				s.logger.Warn("returned loan references deleted copy",
					"loan_id", loanID,
					"book_copy_id", loan.BookCopyID)
				return nil
			}
			return fmt.Errorf("failed to mark copy available: %w", err)
		}

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrNotOwned):
			s.logger.Warn("return rejected: caller does not own loan",
				"loan_id", loanID,
				"caller_id", callerID)
		case errors.Is(err, ErrAlreadyReturned):
			s.logger.Debug("return rejected: loan already returned",
				"loan_id", loanID)
		default:
			s.logger.Error("failed to return loan",
				"error", err,
				"loan_id", loanID)
		}
		return nil, err
	}

	s.logger.Info("loan returned",
		"loan_id", loanID,
		"book_copy_id", loan.BookCopyID)

	return loan, nil
}

// GetLoan retrieves a loan visible to the caller.
func (s *LoanServiceImpl) GetLoan(
	ctx context.Context,
	loanID, callerID uuid.UUID,
	elevated bool,
) (*domain.Loan, error) {
	loan, err := s.loanStore.GetByID(ctx, loanID)
	if err != nil {
		if !errors.Is(err, store.ErrLoanNotFound) {
			s.logger.Error("failed to retrieve loan",
				"error", err,
				"loan_id", loanID)
		}
		return nil, fmt.Errorf("failed to retrieve loan: %w", err)
	}

	if !elevated && loan.UserID != callerID {
		return nil, ErrNotOwned
	}

	return loan, nil
}

// GetLoansByUser retrieves all loans for a user.
func (s *LoanServiceImpl) GetLoansByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Loan, error) {
	loans, err := s.loanStore.ListByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list loans for user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

// GetLoanStatistics returns aggregate loan counts.
func (s *LoanServiceImpl) GetLoanStatistics(ctx context.Context) (*domain.LoanStatistics, error) {
	stats, err := s.loanStore.Statistics(ctx)
	if err != nil {
		s.logger.Error("failed to compute loan statistics", "error", err)
		return nil, fmt.Errorf("failed to compute loan statistics: %w", err)
	}
	return stats, nil
}
