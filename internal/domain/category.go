package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common category validation errors.
var (
	ErrEmptyCategoryID   = fmt.Errorf("%w: category ID cannot be empty", ErrValidation)
	ErrEmptyCategoryName = fmt.Errorf("%w: category name cannot be empty", ErrValidation)
)

// Category is a simple reference entity grouping books by genre or subject.
// Category names are unique system-wide; the store enforces this.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a new Category with the given name.
func NewCategory(name string) (*Category, error) {
	now := time.Now().UTC()
	category := &Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCategoryID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
