package auth

import "strings"

// DefaultAfterLogin is where a successful login or registration lands when
// no safe next path was supplied.
const DefaultAfterLogin = "/secrets"

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns path when it is local, fallback otherwise.
func sanitizeRedirectPath(path, fallback string) string {
	if isLocalPath(path) {
		return path
	}
	return fallback
}
