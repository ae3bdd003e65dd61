package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/database/users"
	"github.com/mrlokans/secrets/internal/entities"
)

// Context keys for request-scoped data
const (
	ContextKeyUser      = "auth_user"
	ContextKeyRequestID = "request_id"
)

// Middleware resolves the session of each request to a user record.
type Middleware struct {
	service  *Service
	sessions *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessions *SessionManager) *Middleware {
	return &Middleware{
		service:  service,
		sessions: sessions,
	}
}

// Attach resolves a raw session token to its user. It returns false when the
// token is unknown or the user no longer exists.
func (m *Middleware) Attach(ctx context.Context, token string) (*entities.User, bool) {
	userID, ok := m.sessions.Resolve(token)
	if !ok {
		return nil, false
	}
	return m.lookup(ctx, userID)
}

// Handler attaches the current user to the Gin context. It must run after
// SessionLoadSave. Requests without a valid session stay anonymous.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := m.sessions.UserID(c.Request.Context()); userID != 0 {
			if user, ok := m.lookup(c.Request.Context(), userID); ok {
				c.Set(ContextKeyUser, user)
			}
		}
		c.Next()
	}
}

func (m *Middleware) lookup(ctx context.Context, userID uint) (*entities.User, bool) {
	user, err := m.service.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			slog.Warn("session refers to a missing user", "user_id", userID)
		} else {
			slog.Error("failed to load session user", "user_id", userID, "error", err)
		}
		return nil, false
	}
	return user, true
}

// RequireAuth redirects anonymous requests to the login page, remembering
// the requested path.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// RequireUser returns the authenticated user, or ErrNotAuthenticated for an
// anonymous request.
func RequireUser(c *gin.Context) (*entities.User, error) {
	user := CurrentUser(c)
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// IsAuthenticated returns true if the request carries a resolved user.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUser(c) != nil
}
