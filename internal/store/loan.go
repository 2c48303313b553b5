package store

import (
	"context"
	"database/sql"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/google/uuid"
)

// LoanStore defines the interface for loan data persistence.
//
// The store guarantees the central consistency invariant of the system: at
// most one loan with IsReturned=false exists per book copy. Create enforces
// it atomically (backed by a partial unique index in the SQL implementation)
// and returns ErrActiveLoanExists when violated, so the storage layer remains
// the last line of defense even if application-level checks race.
type LoanStore interface {
	// Create saves a new loan.
	// Returns ErrActiveLoanExists if the copy already has an active loan and
	// ErrInvalidEntity if the referenced user or copy is missing.
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID without locking.
	// Returns ErrLoanNotFound if the loan does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetForUpdate retrieves a loan with a row-level lock (SELECT FOR
	// UPDATE). It must be called within a transaction; use it when the
	// return state is about to change.
	// Returns ErrLoanNotFound if the loan does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetActiveByCopyID retrieves the single active loan for a copy, if any.
	// Returns ErrLoanNotFound when the copy has no active loan.
	GetActiveByCopyID(ctx context.Context, copyID uuid.UUID) (*domain.Loan, error)

	// ListByUserID retrieves all loans, returned and active, for a user,
	// newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)

	// Update persists changes to an existing loan.
	// Returns ErrLoanNotFound if the loan does not exist.
	Update(ctx context.Context, loan *domain.Loan) error

	// Statistics returns aggregate loan counts computed with counting
	// queries.
	Statistics(ctx context.Context) (*domain.LoanStatistics, error)

	// WithTx returns a new LoanStore bound to the provided transaction.
	WithTx(tx *sql.Tx) LoanStore
}
