package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common author validation errors.
var (
	ErrEmptyAuthorID   = fmt.Errorf("%w: author ID cannot be empty", ErrValidation)
	ErrEmptyAuthorName = fmt.Errorf("%w: author name cannot be empty", ErrValidation)
)

// Author is a simple reference entity: a person who wrote one or more books.
type Author struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAuthor creates a new Author with the given name.
func NewAuthor(name string) (*Author, error) {
	now := time.Now().UTC()
	author := &Author{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := author.Validate(); err != nil {
		return nil, err
	}

	return author, nil
}

// Validate checks if the Author has valid data.
func (a *Author) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAuthorID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyAuthorName
	}
	return nil
}
