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

// PostgresAuthorStore implements the store.AuthorStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAuthorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuthorStore creates a new PostgreSQL implementation of the AuthorStore interface.
func NewPostgresAuthorStore(db store.DBTX, logger *slog.Logger) *PostgresAuthorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuthorStore{
		db:     db,
		logger: logger.With(slog.String("component", "author_store")),
	}
}

// Ensure PostgresAuthorStore implements store.AuthorStore interface
var _ store.AuthorStore = (*PostgresAuthorStore)(nil)

// Create implements store.AuthorStore.Create
func (s *PostgresAuthorStore) Create(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := author.Validate(); err != nil {
		log.Warn("author validation failed during create",
			slog.String("error", err.Error()),
			slog.String("author_id", author.ID.String()))
		return err
	}

	query := `
		INSERT INTO authors (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, author.ID, author.Name, author.CreatedAt, author.UpdatedAt)
	if err != nil {
		log.Error("failed to create author",
			slog.String("error", err.Error()),
			slog.String("author_id", author.ID.String()))
		return MapError(err)
	}

	log.Info("author created successfully",
		slog.String("author_id", author.ID.String()),
		slog.String("name", author.Name))
	return nil
}

// scanAuthor scans one author row.
func scanAuthor(row interface{ Scan(dest ...any) error }) (*domain.Author, error) {
	var author domain.Author
	err := row.Scan(&author.ID, &author.Name, &author.CreatedAt, &author.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// GetByID implements store.AuthorStore.GetByID
func (s *PostgresAuthorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, created_at, updated_at FROM authors WHERE id = $1`
	author, err := scanAuthor(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAuthorNotFound
		}
		log.Error("failed to get author by ID",
			slog.String("error", err.Error()),
			slog.String("author_id", id.String()))
		return nil, MapError(err)
	}
	return author, nil
}

// GetByName implements store.AuthorStore.GetByName
func (s *PostgresAuthorStore) GetByName(ctx context.Context, name string) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, created_at, updated_at FROM authors WHERE name = $1`
	author, err := scanAuthor(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAuthorNotFound
		}
		log.Error("failed to get author by name", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return author, nil
}

// List implements store.AuthorStore.List
func (s *PostgresAuthorStore) List(ctx context.Context) ([]*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM authors ORDER BY name`)
	if err != nil {
		log.Error("failed to list authors", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	authors := []*domain.Author{}
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			log.Error("failed to scan author row", slog.String("error", err.Error()))
			return nil, err
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning author rows", slog.String("error", err.Error()))
		return nil, err
	}
	return authors, nil
}

// Update implements store.AuthorStore.Update
func (s *PostgresAuthorStore) Update(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := author.Validate(); err != nil {
		log.Warn("author validation failed during update",
			slog.String("error", err.Error()),
			slog.String("author_id", author.ID.String()))
		return err
	}

	author.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE authors SET name = $1, updated_at = $2 WHERE id = $3`,
		author.Name,
		author.UpdatedAt,
		author.ID,
	)
	if err != nil {
		log.Error("failed to update author",
			slog.String("error", err.Error()),
			slog.String("author_id", author.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "author")
}

// Delete implements store.AuthorStore.Delete
func (s *PostgresAuthorStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete author",
			slog.String("error", err.Error()),
			slog.String("author_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "author")
}

// WithTx implements store.AuthorStore.WithTx
func (s *PostgresAuthorStore) WithTx(tx *sql.Tx) store.AuthorStore {
	return &PostgresAuthorStore{
		db:     tx,
		logger: s.logger,
	}
}
