package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/platform/logger"
	"github.com/dkowalski/libris-api/internal/store"
	"github.com/google/uuid"
)

// PostgresLoanStore implements the store.LoanStore interface
// using a PostgreSQL database as the storage backend.
//
// The one-active-loan-per-copy invariant is enforced by the partial unique
// index loans_active_copy_idx; a violation surfaces as ErrActiveLoanExists
// through MapError regardless of what the application layer checked first.
type PostgresLoanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLoanStore creates a new PostgreSQL implementation of the LoanStore interface.
func NewPostgresLoanStore(db store.DBTX, logger *slog.Logger) *PostgresLoanStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLoanStore{
		db:     db,
		logger: logger.With(slog.String("component", "loan_store")),
	}
}

// Ensure PostgresLoanStore implements store.LoanStore interface
var _ store.LoanStore = (*PostgresLoanStore)(nil)

const loanColumns = `id, user_id, book_copy_id, loan_date, return_date, is_returned, created_at, updated_at`

// Create implements store.LoanStore.Create
func (s *PostgresLoanStore) Create(ctx context.Context, loan *domain.Loan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := loan.Validate(); err != nil {
		log.Warn("loan validation failed during create",
			slog.String("error", err.Error()),
			slog.String("loan_id", loan.ID.String()))
		return err
	}

	query := `
		INSERT INTO loans (id, user_id, book_copy_id, loan_date, return_date, is_returned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		loan.ID,
		loan.UserID,
		loan.BookCopyID,
		loan.LoanDate,
		loan.ReturnDate,
		loan.IsReturned,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrActiveLoanExists) {
			log.Warn("active loan already exists for copy",
				slog.String("book_copy_id", loan.BookCopyID.String()),
				slog.String("user_id", loan.UserID.String()))
		} else {
			log.Error("failed to create loan",
				slog.String("error", err.Error()),
				slog.String("loan_id", loan.ID.String()))
		}
		return mapped
	}

	log.Info("loan created successfully",
		slog.String("loan_id", loan.ID.String()),
		slog.String("user_id", loan.UserID.String()),
		slog.String("book_copy_id", loan.BookCopyID.String()))
	return nil
}

// scanLoan scans one loan row.
func scanLoan(row interface{ Scan(dest ...any) error }) (*domain.Loan, error) {
	var loan domain.Loan
	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.BookCopyID,
		&loan.LoanDate,
		&loan.ReturnDate,
		&loan.IsReturned,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByID implements store.LoanStore.GetByID
func (s *PostgresLoanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.LoanStore.GetForUpdate
func (s *PostgresLoanStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return s.getOne(ctx, query, id)
}

// GetActiveByCopyID implements store.LoanStore.GetActiveByCopyID
func (s *PostgresLoanStore) GetActiveByCopyID(ctx context.Context, copyID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE book_copy_id = $1 AND NOT is_returned`
	return s.getOne(ctx, query, copyID)
}

func (s *PostgresLoanStore) getOne(ctx context.Context, query string, arg any) (*domain.Loan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	loan, err := scanLoan(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLoanNotFound
		}
		log.Error("failed to get loan", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return loan, nil
}

// ListByUserID implements store.LoanStore.ListByUserID
func (s *PostgresLoanStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list loans for user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	loans := []*domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			log.Error("failed to scan loan row", slog.String("error", err.Error()))
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning loan rows", slog.String("error", err.Error()))
		return nil, err
	}
	return loans, nil
}

// Update implements store.LoanStore.Update
func (s *PostgresLoanStore) Update(ctx context.Context, loan *domain.Loan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := loan.Validate(); err != nil {
		log.Warn("loan validation failed during update",
			slog.String("error", err.Error()),
			slog.String("loan_id", loan.ID.String()))
		return err
	}

	loan.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE loans
		SET loan_date = $1, return_date = $2, is_returned = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		loan.LoanDate,
		loan.ReturnDate,
		loan.IsReturned,
		loan.UpdatedAt,
		loan.ID,
	)
	if err != nil {
		log.Error("failed to update loan",
			slog.String("error", err.Error()),
			slog.String("loan_id", loan.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "loan")
}

// Statistics implements store.LoanStore.Statistics
func (s *PostgresLoanStore) Statistics(ctx context.Context) (*domain.LoanStatistics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_returned),
			COUNT(*) FILTER (WHERE NOT is_returned)
		FROM loans
	`
	var stats domain.LoanStatistics
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalLoans,
		&stats.ReturnedLoans,
		&stats.ActiveLoans,
	)
	if err != nil {
		log.Error("failed to compute loan statistics", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return &stats, nil
}

// WithTx implements store.LoanStore.WithTx
func (s *PostgresLoanStore) WithTx(tx *sql.Tx) store.LoanStore {
	return &PostgresLoanStore{
		db:     tx,
		logger: s.logger,
	}
}
