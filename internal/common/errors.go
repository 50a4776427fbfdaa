// Package common defines shared constants and sentinel errors used across
// the GophDrive server and CLI. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Session errors.
	ErrNoSession     = errors.New("no session")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrUserNotFound  = errors.New("user not found")
	ErrNoCurrentUser = errors.New("no current user")

	// Passcode errors.
	ErrPasscodeInvalid = errors.New("invalid passcode")
	ErrPasscodeExpired = errors.New("passcode expired")

	// Input errors.
	ErrFileTooLarge = errors.New("file too large")
	ErrInvalidQuery = errors.New("invalid query")
	ErrInvalidInput = errors.New("invalid input")
)
