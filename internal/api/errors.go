package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkowalski/libris-api/internal/api/shared"
	"github.com/dkowalski/libris-api/internal/domain"
	"github.com/dkowalski/libris-api/internal/service"
	"github.com/dkowalski/libris-api/internal/service/auth"
	"github.com/dkowalski/libris-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrCopyAlreadyOnLoan),
		errors.Is(err, service.ErrCopyNotAvailable),
		errors.Is(err, service.ErrAlreadyReturned),
		errors.Is(err, service.ErrBookHasCopies),
		errors.Is(err, service.ErrCopyHasActiveLoan),
		store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrReturnBeforeLoan):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, service.ErrUserInactive):
		return "Account is deactivated"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this loan"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrAuthorNotFound):
		return "Author not found"

	case errors.Is(err, store.ErrCategoryNotFound):
		return "Category not found"

	case errors.Is(err, store.ErrBookNotFound):
		return "Book not found"

	case errors.Is(err, store.ErrBookCopyNotFound):
		return "Book copy not found"

	case errors.Is(err, store.ErrLoanNotFound):
		return "Loan not found"

	// Conflict errors
	case errors.Is(err, service.ErrCopyAlreadyOnLoan):
		return "Book copy is already on loan"

	case errors.Is(err, service.ErrCopyNotAvailable):
		return "Book copy is not available"

	case errors.Is(err, service.ErrAlreadyReturned):
		return "Loan is already returned"

	case errors.Is(err, service.ErrBookHasCopies):
		return "Book still has copies and cannot be deleted"

	case errors.Is(err, service.ErrCopyHasActiveLoan):
		return "Book copy has an active loan"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username already exists"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrCategoryNameExists):
		return "Category name already exists"

	case errors.Is(err, store.ErrBookTitleExists):
		return "Book title already exists"

	// Bad request errors. Specific sentinels come before the generic
	// validation case because they wrap ErrValidation.
	case errors.Is(err, domain.ErrReturnBeforeLoan):
		return "Return date cannot precede loan date"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"

	case errors.Is(err, domain.ErrInvalidPassword):
		return "Password does not meet requirements"

	case errors.Is(err, domain.ErrInvalidUsername):
		return "Invalid username"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return "Invalid " + vErr.Field + ": " + vErr.Message
		}
		return "Validation error"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message and writes
// the response, logging the full (redacted) error. A non-empty defaultMsg
// overrides the derived message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if defaultMsg != "" && message == "An unexpected error occurred" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validator/v10 errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'LoginRequest.Username' Error:Field validation
	// for 'Username' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return "Invalid " + field + ": " + getValidationTagMessage(tag)
				}
				return "Invalid " + field
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
