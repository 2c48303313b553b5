package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common book validation errors.
var (
	ErrEmptyBookID         = fmt.Errorf("%w: book ID cannot be empty", ErrValidation)
	ErrEmptyBookTitle      = fmt.Errorf("%w: book title cannot be empty", ErrValidation)
	ErrEmptyBookAuthorID   = fmt.Errorf("%w: book author ID cannot be empty", ErrValidation)
	ErrEmptyBookCategoryID = fmt.Errorf("%w: book category ID cannot be empty", ErrValidation)
)

// Book is a catalog title. Physical instances are tracked as BookCopy rows.
// Titles are unique case-insensitively after trimming; the store enforces this.
type Book struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	AuthorID   uuid.UUID `json:"author_id"`
	CategoryID uuid.UUID `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewBook creates a new Book referencing an existing author and category.
// Referential existence is checked by the service layer, not here.
func NewBook(title string, authorID, categoryID uuid.UUID) (*Book, error) {
	now := time.Now().UTC()
	book := &Book{
		ID:         uuid.New(),
		Title:      strings.TrimSpace(title),
		AuthorID:   authorID,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}

	return book, nil
}

// Validate checks if the Book has valid data.
func (b *Book) Validate() error {
	if b.ID == uuid.Nil {
		return ErrEmptyBookID
	}
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyBookTitle
	}
	if b.AuthorID == uuid.Nil {
		return ErrEmptyBookAuthorID
	}
	if b.CategoryID == uuid.Nil {
		return ErrEmptyBookCategoryID
	}
	return nil
}
