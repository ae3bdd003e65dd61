package oauth2

import "errors"

var (
	ErrProviderNotFound    = errors.New("provider not registered")
	ErrAuthProviderFailure = errors.New("authentication with provider failed")
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrMissingSubject      = errors.New("provider profile has no subject")
)
