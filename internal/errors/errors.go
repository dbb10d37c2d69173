// Package errors provides custom error types for forgeops
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors
var (
	ErrMissingToken      = errors.New("missing required argument 'token'")
	ErrMissingRepository = errors.New("missing required argument 'repository'")
	ErrInvalidRepository = errors.New("invalid repository format (expected owner/repo)")
	ErrInvalidReason     = errors.New("invalid dismissal reason")
	ErrRateLimited       = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized      = errors.New("unauthorized: invalid or expired token")
	ErrMalformedItem     = errors.New("malformed list item")
	ErrFollowUpLoop      = errors.New("follow-up chain exceeded hop limit")
	ErrMissingScope      = errors.New("token is missing required scopes")
	ErrPreflightFailed   = errors.New("token preflight failed")
	ErrForeignHost       = errors.New("refusing to send credentials to a different host")
)

// ConfigError represents invalid input detected before any network call
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new configuration error
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// IsConfigError reports whether err is, or wraps, a ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// HTTPError represents a non-2xx GitHub API response
type HTTPError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GitHub API error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, message string, err error) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message, Err: err}
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsRateLimited checks if the error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsNotFound reports whether err carries a 404 response
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// ScopeError lists the OAuth scopes a token lacks for an operation
type ScopeError struct {
	Operation string
	Missing   []string
	Present   []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("token is missing scopes for %s: %s (has: %s)",
		e.Operation, strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

func (e *ScopeError) Unwrap() error {
	return ErrMissingScope
}
