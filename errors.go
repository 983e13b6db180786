package accounts

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoEmptyString is returned when a hashing input is empty
var ErrNoEmptyString = errors.New("string can't be empty")

// ErrMismatchedHashAndPassword is the error for a failed password comparison
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// Text codes surfaced to API clients alongside the HTTP status
const (
	TextCodeTokenInvalid        = "TOKEN_INVALID"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeCredentialsInvalid  = "CREDENTIALS_INVALID"
	TextCodeVerificationExpired = "VERIFICATION_EXPIRED"
	TextCodeIdentityTaken       = "IDENTITY_TAKEN"
)

// ErrTokenInvalid covers signature failures and malformed token envelopes.
// Decode errors never crash the process; they surface as this value.
var ErrTokenInvalid = goerrors.New("authorization token is invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenExpired is returned when a refresh token is past its own expiry.
// The message is deliberately free of timestamps.
var ErrTokenExpired = goerrors.New("authorization token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrCredentialsInvalid is the generic unauthorized response for login and
// token validation failures
var ErrCredentialsInvalid = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeCredentialsInvalid)

// IsUnauthorized reports whether err maps to a 401 response
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Code == goerrors.CodeUnauthorized
	}
	return false
}

// IsConflict reports whether err maps to a 409 response
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryConflict
	}
	return false
}
