// Package service provides application-level services for the loan engine,
// the catalog, and user management.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers check with errors.Is(); the
// API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer maps this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrCopyAlreadyOnLoan indicates the book copy already has an active loan.
	// Returned by CreateLoan whether the conflict was seen by the engine's own
	// check or by the storage constraint. Maps to HTTP 409 Conflict.
	ErrCopyAlreadyOnLoan = errors.New("book copy is already on loan")

	// ErrCopyNotAvailable indicates the copy is marked unavailable without an
	// active loan, for example while withdrawn for repair. Maps to HTTP 409.
	ErrCopyNotAvailable = errors.New("book copy is not available")

	// ErrAlreadyReturned indicates the loan is already in its terminal
	// returned state. Returning a loan is not idempotent-success; the second
	// attempt fails. Maps to HTTP 409 Conflict.
	ErrAlreadyReturned = errors.New("loan is already returned")

	// ErrInvalidCredentials indicates a failed username/password check.
	// Deliberately indistinguishable between unknown user and wrong password.
	// Maps to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserInactive indicates a deactivated account attempted to
	// authenticate. Maps to HTTP 401 Unauthorized.
	ErrUserInactive = errors.New("user account is deactivated")

	// ErrBookHasCopies indicates a book cannot be deleted while copies of it
	// exist. Maps to HTTP 409 Conflict.
	ErrBookHasCopies = errors.New("book still has copies")

	// ErrCopyHasActiveLoan indicates a copy update would contradict an active
	// loan, such as marking a loaned copy available. Maps to HTTP 409.
	ErrCopyHasActiveLoan = errors.New("book copy has an active loan")
)
