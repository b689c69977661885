// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// HTTP fetch errors.
var (
	// ErrHTTPStatusNotOK indicates an upstream answered with a non-2xx status other than 429.
	ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

	// ErrTooManyRedirects indicates a redirect chain longer than the fetcher allows.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Rate limiting and throttling errors.
var (
	// ErrRateLimited indicates an upstream answered with HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrRetryBudgetExhausted indicates a call kept hitting 429 after its last allowed retry.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)

// Enrichment errors.
var (
	// ErrPostNotFound indicates the fetched document carries no post record.
	ErrPostNotFound = errors.New("post record not found")

	// ErrNoMedia indicates a post record without any embeddable media.
	ErrNoMedia = errors.New("no embeddable media")

	// ErrUnexpectedType indicates a document of an unexpected shape.
	ErrUnexpectedType = errors.New("unexpected type")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
