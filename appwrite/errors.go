package appwrite

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid appwrite configuration")
)

// Error types reported by Appwrite in the "type" field
const (
	TypeUserAlreadyExists      = "user_already_exists"
	TypeUserInvalidCredentials = "user_invalid_credentials"
	TypeUserSessionNotFound    = "user_session_not_found"
	TypeUserSessionExists      = "user_session_already_exists"
	TypeUserPasswordMismatch   = "user_password_mismatch"
	TypeGeneralArgument        = "general_argument_invalid"
	TypeUnauthorizedScope      = "general_unauthorized_scope"
	TypeDocumentNotFound       = "document_not_found"
)

// APIError represents an Appwrite API error
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("appwrite API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("appwrite API error: status %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates a missing or invalid session
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsConflict checks if the error indicates a duplicate resource
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsBadRequest checks if the error indicates invalid input
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == 400
}

// AsAPIError unwraps err into an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorBody is the JSON error envelope Appwrite returns
type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version"`
}
