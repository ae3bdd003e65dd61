package http

import (
	"github.com/mrlokans/secrets/internal/audit"
	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Secrets  SecretStore

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	OAuthBridge    *oauth2.Bridge // nil disables the /auth routes

	// Audit trail; nil disables event recording and the activity page
	Audit *audit.Service

	// CSRF protection is enabled when the secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Error pages include the underlying error (development only)
	ShowErrorDetails bool

	// UI paths; empty means the embedded templates and assets
	TemplatesPath string
	StaticPath    string

	MetricsEnabled bool
	Version        string
}
