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

// PostgresBookStore implements the store.BookStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBookStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBookStore creates a new PostgreSQL implementation of the BookStore interface.
func NewPostgresBookStore(db store.DBTX, logger *slog.Logger) *PostgresBookStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBookStore{
		db:     db,
		logger: logger.With(slog.String("component", "book_store")),
	}
}

// Ensure PostgresBookStore implements store.BookStore interface
var _ store.BookStore = (*PostgresBookStore)(nil)

const bookColumns = `id, title, author_id, category_id, created_at, updated_at`

// Create implements store.BookStore.Create
func (s *PostgresBookStore) Create(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := book.Validate(); err != nil {
		log.Warn("book validation failed during create",
			slog.String("error", err.Error()),
			slog.String("book_id", book.ID.String()))
		return err
	}

	query := `
		INSERT INTO books (id, title, author_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		book.ID,
		book.Title,
		book.AuthorID,
		book.CategoryID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create book",
			slog.String("error", err.Error()),
			slog.String("book_id", book.ID.String()),
			slog.String("title", book.Title))
		return MapError(err)
	}

	log.Info("book created successfully",
		slog.String("book_id", book.ID.String()),
		slog.String("title", book.Title))
	return nil
}

// scanBook scans one book row.
func scanBook(row interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var book domain.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.AuthorID,
		&book.CategoryID,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByID implements store.BookStore.GetByID
func (s *PostgresBookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	book, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookNotFound
		}
		log.Error("failed to get book by ID",
			slog.String("error", err.Error()),
			slog.String("book_id", id.String()))
		return nil, MapError(err)
	}
	return book, nil
}

// GetByTitle implements store.BookStore.GetByTitle
// Titles compare case-insensitively after trimming, mirroring the unique index.
func (s *PostgresBookStore) GetByTitle(ctx context.Context, title string) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + bookColumns + ` FROM books WHERE lower(btrim(title)) = lower(btrim($1))`
	book, err := scanBook(s.db.QueryRowContext(ctx, query, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookNotFound
		}
		log.Error("failed to get book by title", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return book, nil
}

// List implements store.BookStore.List
func (s *PostgresBookStore) List(ctx context.Context) ([]*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title`)
	if err != nil {
		log.Error("failed to list books", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	books := []*domain.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error("failed to scan book row", slog.String("error", err.Error()))
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning book rows", slog.String("error", err.Error()))
		return nil, err
	}
	return books, nil
}

// Update implements store.BookStore.Update
func (s *PostgresBookStore) Update(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := book.Validate(); err != nil {
		log.Warn("book validation failed during update",
			slog.String("error", err.Error()),
			slog.String("book_id", book.ID.String()))
		return err
	}

	book.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET title = $1, author_id = $2, category_id = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		book.Title,
		book.AuthorID,
		book.CategoryID,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		log.Error("failed to update book",
			slog.String("error", err.Error()),
			slog.String("book_id", book.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "book")
}

// Delete implements store.BookStore.Delete
func (s *PostgresBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete book",
			slog.String("error", err.Error()),
			slog.String("book_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "book")
}

// CountCopies implements store.BookStore.CountCopies
func (s *PostgresBookStore) CountCopies(ctx context.Context, bookID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_copies WHERE book_id = $1`, bookID).Scan(&count)
	if err != nil {
		log.Error("failed to count book copies",
			slog.String("error", err.Error()),
			slog.String("book_id", bookID.String()))
		return 0, MapError(err)
	}
	return count, nil
}

// WithTx implements store.BookStore.WithTx
func (s *PostgresBookStore) WithTx(tx *sql.Tx) store.BookStore {
	return &PostgresBookStore{
		db:     tx,
		logger: s.logger,
	}
}
