package auth

import "errors"

var (
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrStoreUnavailable   = errors.New("user store unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)
