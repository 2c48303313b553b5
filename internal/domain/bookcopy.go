package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common book copy validation errors.
var (
	ErrEmptyBookCopyID       = fmt.Errorf("%w: book copy ID cannot be empty", ErrValidation)
	ErrEmptyBookCopyBookID   = fmt.Errorf("%w: book copy book ID cannot be empty", ErrValidation)
	ErrEmptyBookCopyLocation = fmt.Errorf("%w: book copy location cannot be empty", ErrValidation)
)

// BookCopy is a physical, individually trackable instance of a Book.
//
// Available is derived state: true exactly when no active loan references the
// copy. The loan engine is the only writer of this flag once the copy has loan
// history; catalog updates may not contradict an active loan.
type BookCopy struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"book_id"`
	Location  string    `json:"location"` // shelf location
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookCopy creates a new available copy of an existing book.
func NewBookCopy(bookID uuid.UUID, location string) (*BookCopy, error) {
	now := time.Now().UTC()
	copy := &BookCopy{
		ID:        uuid.New(),
		BookID:    bookID,
		Location:  strings.TrimSpace(location),
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := copy.Validate(); err != nil {
		return nil, err
	}

	return copy, nil
}

// Validate checks if the BookCopy has valid data.
func (c *BookCopy) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyBookCopyID
	}
	if c.BookID == uuid.Nil {
		return ErrEmptyBookCopyBookID
	}
	if strings.TrimSpace(c.Location) == "" {
		return ErrEmptyBookCopyLocation
	}
	return nil
}
