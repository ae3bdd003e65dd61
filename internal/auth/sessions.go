package auth

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/secrets/internal/config"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyLoginAt = "login_at"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

func init() {
	gob.Register(time.Time{})
}

// SessionManager maps an opaque session token to a user id. A client is
// anonymous until Login stores an id, and anonymous again after Logout.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager backed by store.
func NewSessionManager(store scs.Store, cfg config.Auth) *SessionManager {
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2 // Half of lifetime for inactivity

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the session survives the top-level redirect back from the OAuth provider
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// Login moves the session in ctx to the authenticated state and returns the
// new token. The token is renewed first so a pre-login token cannot be reused.
func (sm *SessionManager) Login(ctx context.Context, userID uint) (string, error) {
	if err := sm.RenewToken(ctx); err != nil {
		return "", err
	}

	// Stored as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(userID))
	sm.Put(ctx, SessionKeyLoginAt, time.Now())

	return sm.Token(ctx), nil
}

// Resolve returns the user id bound to token by reading the store directly,
// so it never loads, renews or commits a session. Missing, expired and
// unknown tokens all resolve to false.
func (sm *SessionManager) Resolve(token string) (uint, bool) {
	if token == "" {
		return 0, false
	}
	b, found, err := sm.Store.Find(token)
	if err != nil || !found {
		return 0, false
	}
	_, values, err := sm.Codec.Decode(b)
	if err != nil {
		return 0, false
	}
	userID, ok := values[SessionKeyUserID].(int)
	if !ok || userID <= 0 {
		return 0, false
	}
	return uint(userID), true
}

// UserID returns the user id of the session already loaded into ctx.
// Returns 0 for an anonymous session.
func (sm *SessionManager) UserID(ctx context.Context) uint {
	id := sm.GetInt(ctx, SessionKeyUserID)
	if id <= 0 {
		return 0
	}
	return uint(id)
}

// LoginAt returns when the session in ctx was authenticated.
func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	return sm.GetTime(ctx, SessionKeyLoginAt)
}

// Logout destroys the session loaded into ctx.
func (sm *SessionManager) Logout(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// LogoutToken destroys the server-side record for token. Unknown or expired
// tokens are a no-op.
func (sm *SessionManager) LogoutToken(token string) error {
	if token == "" {
		return nil
	}
	return sm.Store.Delete(token)
}
