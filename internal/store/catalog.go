package store

import (
	"context"
	"database/sql"

	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/google/uuid"
)

// AuthorStore defines the interface for author data persistence.
type AuthorStore interface {
	// Create saves a new author to the store.
	Create(ctx context.Context, author *domain.Author) error

	// GetByID retrieves an author by ID.
	// Returns ErrAuthorNotFound if the author does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error)

	// GetByName retrieves an author by exact name.
	// Returns ErrAuthorNotFound if no author has that name.
	GetByName(ctx context.Context, name string) (*domain.Author, error)

	// List retrieves all authors ordered by name.
	List(ctx context.Context) ([]*domain.Author, error)

	// Update modifies an existing author.
	// Returns ErrAuthorNotFound if the author does not exist.
	Update(ctx context.Context, author *domain.Author) error

	// Delete removes an author by ID.
	// Returns ErrAuthorNotFound if the author does not exist and
	// ErrInvalidEntity if books still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new AuthorStore bound to the provided transaction.
	WithTx(tx *sql.Tx) AuthorStore
}

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrCategoryNameExists if the name is already taken.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// GetByName retrieves a category by exact name.
	// Returns ErrCategoryNotFound if no category has that name.
	GetByName(ctx context.Context, name string) (*domain.Category, error)

	// List retrieves all categories ordered by name.
	List(ctx context.Context) ([]*domain.Category, error)

	// Update modifies an existing category.
	// Returns ErrCategoryNotFound if the category does not exist and
	// ErrCategoryNameExists if renaming to a taken name.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category by ID.
	// Returns ErrCategoryNotFound if the category does not exist and
	// ErrInvalidEntity if books still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CategoryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}

// BookStore defines the interface for book data persistence.
type BookStore interface {
	// Create saves a new book.
	// Returns ErrBookTitleExists if an equal title (case-insensitive,
	// trimmed) already exists, and ErrInvalidEntity if the referenced author
	// or category is missing.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	// Returns ErrBookNotFound if the book does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)

	// GetByTitle retrieves a book by title, compared case-insensitively
	// after trimming. Returns ErrBookNotFound if no book matches.
	GetByTitle(ctx context.Context, title string) (*domain.Book, error)

	// List retrieves all books ordered by title.
	List(ctx context.Context) ([]*domain.Book, error)

	// Update modifies an existing book.
	// Returns ErrBookNotFound if the book does not exist and
	// ErrBookTitleExists on a title collision.
	Update(ctx context.Context, book *domain.Book) error

	// Delete removes a book by ID.
	// Returns ErrBookNotFound if the book does not exist and
	// ErrInvalidEntity while copies still reference it.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountCopies returns the number of copies of the given book.
	CountCopies(ctx context.Context, bookID uuid.UUID) (int64, error)

	// WithTx returns a new BookStore bound to the provided transaction.
	WithTx(tx *sql.Tx) BookStore
}

// BookCopyStore defines the interface for book copy data persistence.
type BookCopyStore interface {
	// Create saves a new book copy.
	// Returns ErrInvalidEntity if the referenced book is missing.
	Create(ctx context.Context, copy *domain.BookCopy) error

	// GetByID retrieves a copy by ID.
	// Returns ErrBookCopyNotFound if the copy does not exist.
	// This read takes no lock; use GetForUpdate inside a transaction when
	// the availability flag is about to change.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error)

	// GetForUpdate retrieves a copy with a row-level lock (SELECT FOR
	// UPDATE). It must be called within a transaction and serializes
	// concurrent loan creation per copy.
	// Returns ErrBookCopyNotFound if the copy does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.BookCopy, error)

	// List retrieves all copies.
	List(ctx context.Context) ([]*domain.BookCopy, error)

	// ListAvailable retrieves all copies currently marked available.
	ListAvailable(ctx context.Context) ([]*domain.BookCopy, error)

	// Update modifies an existing copy, including its availability flag.
	// Only the loan engine may flip Available for copies with loan history.
	// Returns ErrBookCopyNotFound if the copy does not exist.
	Update(ctx context.Context, copy *domain.BookCopy) error

	// SetAvailable updates only the availability flag.
	// Returns ErrBookCopyNotFound if the copy does not exist.
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error

	// Delete removes a copy by ID.
	// Returns ErrBookCopyNotFound if the copy does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new BookCopyStore bound to the provided transaction.
	WithTx(tx *sql.Tx) BookCopyStore
}
