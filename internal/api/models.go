package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dkowalski/libris-api/internal/domain"
)

// dateLayout is the wire format for loan calendar dates.
const dateLayout = "2006-01-02"

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=16"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Role is the authenticated user's role
	Role domain.Role `json:"role"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// UserResponse is the public representation of a user. It never carries
// password material.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email,omitempty"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse converts a domain user to its API representation.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// UpdateUserRequest defines the payload for user administration updates.
// Only non-nil fields are applied.
type UpdateUserRequest struct {
	Email    *string `json:"email"     validate:"omitempty,email"`
	Password *string `json:"password"  validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role"      validate:"omitempty,oneof=admin librarian member"`
	IsActive *bool   `json:"is_active"`
}

// AuthorRequest defines the payload for author create and update endpoints.
type AuthorRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CategoryRequest defines the payload for category create and update endpoints.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// BookRequest defines the payload for book create and update endpoints.
type BookRequest struct {
	Title      string    `json:"title"       validate:"required,max=500"`
	AuthorID   uuid.UUID `json:"author_id"   validate:"required"`
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
}

// CreateBookCopyRequest defines the payload for registering a new copy.
type CreateBookCopyRequest struct {
	BookID   uuid.UUID `json:"book_id" validate:"required"`
	Location string    `json:"location" validate:"required,max=200"`
}

// UpdateBookCopyRequest defines the payload for updating a copy.
type UpdateBookCopyRequest struct {
	BookID    uuid.UUID `json:"book_id"  validate:"required"`
	Location  string    `json:"location" validate:"required,max=200"`
	Available bool      `json:"available"`
}

// CreateLoanRequest defines the payload for checking out a book copy.
// Dates use the 2006-01-02 calendar format; both are optional. UserID is
// honored only for librarian and admin callers checking a copy out on a
// member's behalf.
type CreateLoanRequest struct {
	BookCopyID uuid.UUID  `json:"book_copy_id" validate:"required"`
	UserID     *uuid.UUID `json:"user_id"`
	LoanDate   string     `json:"loan_date"   validate:"omitempty,datetime=2006-01-02"`
	ReturnDate string     `json:"return_date" validate:"omitempty,datetime=2006-01-02"`
}

// LoanResponse is the wire representation of a loan. Dates are calendar
// dates, not timestamps.
type LoanResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	BookCopyID uuid.UUID `json:"book_copy_id"`
	LoanDate   string    `json:"loan_date"`
	ReturnDate string    `json:"return_date"`
	IsReturned bool      `json:"is_returned"`
}

// NewLoanResponse converts a domain loan to its API representation.
func NewLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:         loan.ID,
		UserID:     loan.UserID,
		BookCopyID: loan.BookCopyID,
		LoanDate:   loan.LoanDate.Format(dateLayout),
		ReturnDate: loan.ReturnDate.Format(dateLayout),
		IsReturned: loan.IsReturned,
	}
}

// NewLoanResponses converts a slice of domain loans.
func NewLoanResponses(loans []*domain.Loan) []LoanResponse {
	out := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, NewLoanResponse(loan))
	}
	return out
}
