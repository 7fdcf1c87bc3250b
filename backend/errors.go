package backend

import (
	"errors"

	"github.com/s0up4200/marquee/appwrite"
)

// Common errors
var (
	// ErrInvalidConfig indicates missing database or collection ids
	ErrInvalidConfig = errors.New("invalid backend configuration")
	// ErrEmptyTerm indicates a blank search term
	ErrEmptyTerm = errors.New("search term must not be empty")
)

// AuthErrorKind classifies authentication failures
type AuthErrorKind int

const (
	// AuthUnknown is any failure not covered below
	AuthUnknown AuthErrorKind = iota
	// AuthDuplicateAccount means the identity is already registered
	AuthDuplicateAccount
	// AuthValidation means the provider rejected the inputs
	AuthValidation
	// AuthInvalidCredentials means email and password did not match
	AuthInvalidCredentials
)

// String returns the string representation of an AuthErrorKind
func (k AuthErrorKind) String() string {
	switch k {
	case AuthDuplicateAccount:
		return "duplicate_account"
	case AuthValidation:
		return "validation"
	case AuthInvalidCredentials:
		return "invalid_credentials"
	default:
		return "unknown"
	}
}

// AuthError is a sign-in or registration failure carrying the provider's message
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

// Error returns the provider message so forms can show it as-is
func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "authentication failed"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthKind reports whether err is an *AuthError of the given kind
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

// authError wraps a provider failure into an *AuthError
func authError(err error) error {
	if err == nil {
		return nil
	}
	apiErr, ok := appwrite.AsAPIError(err)
	if !ok {
		return &AuthError{Kind: AuthUnknown, Err: err}
	}

	kind := AuthUnknown
	switch {
	case apiErr.IsConflict() || apiErr.Type == appwrite.TypeUserAlreadyExists:
		kind = AuthDuplicateAccount
	case apiErr.Type == appwrite.TypeUserInvalidCredentials:
		kind = AuthInvalidCredentials
	case apiErr.IsBadRequest():
		kind = AuthValidation
	}
	return &AuthError{Kind: kind, Message: apiErr.Message, Err: err}
}
