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

// PostgresBookCopyStore implements the store.BookCopyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBookCopyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBookCopyStore creates a new PostgreSQL implementation of the BookCopyStore interface.
func NewPostgresBookCopyStore(db store.DBTX, logger *slog.Logger) *PostgresBookCopyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBookCopyStore{
		db:     db,
		logger: logger.With(slog.String("component", "book_copy_store")),
	}
}

// Ensure PostgresBookCopyStore implements store.BookCopyStore interface
var _ store.BookCopyStore = (*PostgresBookCopyStore)(nil)

const bookCopyColumns = `id, book_id, location, available, created_at, updated_at`

// Create implements store.BookCopyStore.Create
func (s *PostgresBookCopyStore) Create(ctx context.Context, copy *domain.BookCopy) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := copy.Validate(); err != nil {
		log.Warn("book copy validation failed during create",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", copy.ID.String()))
		return err
	}

	query := `
		INSERT INTO book_copies (id, book_id, location, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		copy.ID,
		copy.BookID,
		copy.Location,
		copy.Available,
		copy.CreatedAt,
		copy.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create book copy",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", copy.ID.String()),
			slog.String("book_id", copy.BookID.String()))
		return MapError(err)
	}

	log.Info("book copy created successfully",
		slog.String("book_copy_id", copy.ID.String()),
		slog.String("book_id", copy.BookID.String()))
	return nil
}

// scanBookCopy scans one book copy row.
func scanBookCopy(row interface{ Scan(dest ...any) error }) (*domain.BookCopy, error) {
	var copy domain.BookCopy
	err := row.Scan(
		&copy.ID,
		&copy.BookID,
		&copy.Location,
		&copy.Available,
		&copy.CreatedAt,
		&copy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

// GetByID implements store.BookCopyStore.GetByID
func (s *PostgresBookCopyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.BookCopyStore.GetForUpdate
//
// The row-level lock serializes concurrent borrow attempts per copy: the
// first transaction to lock the row performs its availability check and
// insert while every competitor blocks here and then observes the outcome.
func (s *PostgresBookCopyStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresBookCopyStore) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.BookCopy, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + bookCopyColumns + ` FROM book_copies WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	copy, err := scanBookCopy(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookCopyNotFound
		}
		log.Error("failed to get book copy",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", id.String()),
			slog.Bool("for_update", forUpdate))
		return nil, MapError(err)
	}
	return copy, nil
}

// List implements store.BookCopyStore.List
func (s *PostgresBookCopyStore) List(ctx context.Context) ([]*domain.BookCopy, error) {
	return s.list(ctx, `SELECT `+bookCopyColumns+` FROM book_copies ORDER BY created_at`)
}

// ListAvailable implements store.BookCopyStore.ListAvailable
func (s *PostgresBookCopyStore) ListAvailable(ctx context.Context) ([]*domain.BookCopy, error) {
	return s.list(ctx, `SELECT `+bookCopyColumns+` FROM book_copies WHERE available ORDER BY created_at`)
}

func (s *PostgresBookCopyStore) list(ctx context.Context, query string) ([]*domain.BookCopy, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list book copies", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	copies := []*domain.BookCopy{}
	for rows.Next() {
		copy, err := scanBookCopy(rows)
		if err != nil {
			log.Error("failed to scan book copy row", slog.String("error", err.Error()))
			return nil, err
		}
		copies = append(copies, copy)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning book copy rows", slog.String("error", err.Error()))
		return nil, err
	}
	return copies, nil
}

// Update implements store.BookCopyStore.Update
func (s *PostgresBookCopyStore) Update(ctx context.Context, copy *domain.BookCopy) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := copy.Validate(); err != nil {
		log.Warn("book copy validation failed during update",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", copy.ID.String()))
		return err
	}

	copy.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE book_copies
		SET book_id = $1, location = $2, available = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		copy.BookID,
		copy.Location,
		copy.Available,
		copy.UpdatedAt,
		copy.ID,
	)
	if err != nil {
		log.Error("failed to update book copy",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", copy.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "book copy")
}

// SetAvailable implements store.BookCopyStore.SetAvailable
func (s *PostgresBookCopyStore) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE book_copies SET available = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, available, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set book copy availability",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", id.String()),
			slog.Bool("available", available))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "book copy"); err != nil {
		return err
	}

	log.Debug("book copy availability updated",
		slog.String("book_copy_id", id.String()),
		slog.Bool("available", available))
	return nil
}

// Delete implements store.BookCopyStore.Delete
func (s *PostgresBookCopyStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM book_copies WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete book copy",
			slog.String("error", err.Error()),
			slog.String("book_copy_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "book copy")
}

// WithTx implements store.BookCopyStore.WithTx
func (s *PostgresBookCopyStore) WithTx(tx *sql.Tx) store.BookCopyStore {
	return &PostgresBookCopyStore{
		db:     tx,
		logger: s.logger,
	}
}
