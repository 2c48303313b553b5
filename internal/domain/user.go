package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role describes what a user is allowed to do.
type Role string

// Valid user roles. Members borrow books; librarians additionally manage the
// catalog and see system-wide data; admins additionally administer accounts.
const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// Elevated reports whether the role carries staff privileges.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// Common user validation errors. All wrap a shared sentinel so callers can
// classify them with errors.Is against ErrValidation or ErrInvalidPassword.
var (
	ErrEmptyUserID         = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrInvalidUsername     = fmt.Errorf("%w: username must start with a letter and contain 3-16 letters, digits, or underscores", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must be at least 8 characters long", ErrInvalidPassword)
	ErrPasswordTooLong     = fmt.Errorf("%w: password must be at most 72 characters long", ErrInvalidPassword)
	ErrPasswordTooSimple   = fmt.Errorf("%w: password must contain at least one letter and one digit", ErrInvalidPassword)
	ErrEmptyPassword       = fmt.Errorf("%w: password cannot be empty", ErrInvalidPassword)
	ErrEmptyHashedPassword = fmt.Errorf("%w: hashed password cannot be empty", ErrValidation)
	ErrInvalidRole         = fmt.Errorf("%w: invalid user role", ErrValidation)
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,15}$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

// User represents a registered user of the library.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Password       string    `json:"-"` // Plaintext, only populated transiently before hashing
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	Role           Role      `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new active member with the given credentials.
// It generates a new UUID and sets the creation/update timestamps.
// The caller is responsible for hashing the password before storing the user.
func NewUser(username, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(username),
		Email:     strings.TrimSpace(email),
		Password:  password,
		Role:      RoleMember,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if !usernameRegex.MatchString(u.Username) {
		return ErrInvalidUsername
	}

	// Email is optional; validate only when present.
	if u.Email != "" && !emailRegex.MatchString(u.Email) {
		return ErrInvalidEmail
	}

	if !u.Role.IsValid() {
		return ErrInvalidRole
	}

	if u.Password != "" {
		if err := ValidatePassword(u.Password); err != nil {
			return err
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the store carry only the hash.
		return ErrEmptyPassword
	}

	return nil
}

// ValidatePassword checks password policy: 8-72 characters (bcrypt's practical
// upper bound) with at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordTooSimple
	}
	return nil
}
