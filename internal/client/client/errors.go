package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidInput  = errors.New("invalid request")
	ErrPasscode      = errors.New("invalid or expired passcode")
	ErrUserNotFound  = errors.New("user not found")
	ErrDeleteFailed  = errors.New("delete failed")
	ErrNoSessionSent = errors.New("server did not issue a session")
)
