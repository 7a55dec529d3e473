package domain

import "errors"

// Common errors used throughout the application.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadCredentials = errors.New("invalid username or password")

	// ErrLastAPIKey is returned when revoking the only remaining API key.
	ErrLastAPIKey = errors.New("cannot revoke the last API key")

	// ErrAuthenticationRequired is returned when an anonymous caller reaches a
	// protected operation.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied is returned when an authenticated caller is not
	// the owner of the resource it tries to mutate.
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	ErrCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodeInternalError         = "INTERNAL_ERROR"
	ErrCodeLastAPIKey            = "LAST_API_KEY"
)

// StandardError represents a standardized error response from the API.
type StandardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}
