package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLoanPeriod is how long a borrower may keep a copy when no explicit
// due date is supplied.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Common loan validation errors. The validation sentinels wrap ErrValidation
// so they classify as bad input at the API boundary.
var (
	ErrEmptyLoanID         = fmt.Errorf("%w: loan ID cannot be empty", ErrValidation)
	ErrEmptyLoanUserID     = fmt.Errorf("%w: loan user ID cannot be empty", ErrValidation)
	ErrEmptyLoanCopyID     = fmt.Errorf("%w: loan book copy ID cannot be empty", ErrValidation)
	ErrZeroLoanDate        = fmt.Errorf("%w: loan date cannot be zero", ErrValidation)
	ErrZeroReturnDate      = fmt.Errorf("%w: return date cannot be zero", ErrValidation)
	ErrReturnBeforeLoan    = fmt.Errorf("%w: return date cannot precede loan date", ErrValidation)
	ErrLoanAlreadyReturned = errors.New("loan is already returned")
)

// Loan records one checkout of a book copy by a user.
//
// A loan starts active (IsReturned=false) and has exactly one terminal
// transition, to returned. At most one active loan may exist per book copy at
// any time; the loan engine and a storage-level constraint enforce this
// together.
type Loan struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	BookCopyID uuid.UUID `json:"book_copy_id"`
	LoanDate   time.Time `json:"loan_date"`   // calendar date the copy was checked out
	ReturnDate time.Time `json:"return_date"` // due date, not the actual return moment
	IsReturned bool      `json:"is_returned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewLoan creates an active loan for the given user and copy.
// Zero loanDate defaults to today; zero returnDate defaults to loanDate plus
// the standard 14-day loan period. Both are truncated to calendar dates.
func NewLoan(userID, bookCopyID uuid.UUID, loanDate, returnDate time.Time) (*Loan, error) {
	now := time.Now().UTC()

	if loanDate.IsZero() {
		loanDate = now
	}
	loanDate = truncateToDate(loanDate)

	if returnDate.IsZero() {
		returnDate = loanDate.Add(DefaultLoanPeriod)
	}
	returnDate = truncateToDate(returnDate)

	loan := &Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookCopyID: bookCopyID,
		LoanDate:   loanDate,
		ReturnDate: returnDate,
		IsReturned: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := loan.Validate(); err != nil {
		return nil, err
	}

	return loan, nil
}

// Validate checks if the Loan has valid data.
func (l *Loan) Validate() error {
	if l.ID == uuid.Nil {
		return ErrEmptyLoanID
	}
	if l.UserID == uuid.Nil {
		return ErrEmptyLoanUserID
	}
	if l.BookCopyID == uuid.Nil {
		return ErrEmptyLoanCopyID
	}
	if l.LoanDate.IsZero() {
		return ErrZeroLoanDate
	}
	if l.ReturnDate.IsZero() {
		return ErrZeroReturnDate
	}
	if l.ReturnDate.Before(l.LoanDate) {
		return ErrReturnBeforeLoan
	}
	return nil
}

// MarkReturned transitions the loan to its terminal returned state.
// Returns ErrLoanAlreadyReturned if the loan is not active; there is no
// transition out of the returned state.
func (l *Loan) MarkReturned() error {
	if l.IsReturned {
		return ErrLoanAlreadyReturned
	}
	l.IsReturned = true
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// LoanStatistics aggregates loan counts for reporting. The counts come from
// counting queries in the store, never from scanning full result sets.
type LoanStatistics struct {
	TotalLoans    int64 `json:"total_loans"`
	ReturnedLoans int64 `json:"returned_loans"`
	ActiveLoans   int64 `json:"not_returned_loans"`
}

// truncateToDate drops the time-of-day component, keeping a UTC calendar date.
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
