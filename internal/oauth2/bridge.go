package oauth2

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/mrlokans/secrets/internal/entities"
)

const (
	// StateCookieName holds the pending state between BeginAuth and the callback
	StateCookieName = "oauth_state"

	stateMaxAge   = 600 // seconds
	stateKey      = "state"
	providerKey   = "provider"
	stateByteSize = 32
)

// UserStore resolves provider identities to local users.
type UserStore interface {
	FindOrCreateByExternalID(ctx context.Context, provider entities.OAuthProvider, subject string) (*entities.User, error)
}

// Bridge runs the authorization-code flow for registered providers and maps
// the resulting profile to a local user. Pending state lives in a signed
// cookie, so no server-side storage is needed between the two legs.
type Bridge struct {
	registry *Registry
	users    UserStore
	cookies  *sessions.CookieStore
}

// NewBridge creates a bridge signing its state cookie with secret.
func NewBridge(registry *Registry, users UserStore, secret []byte, secure bool) *Bridge {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/auth",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(stateMaxAge)

	return &Bridge{
		registry: registry,
		users:    users,
		cookies:  store,
	}
}

// Registry returns the providers the bridge can serve.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// BeginAuth stores a fresh state for the named provider and returns the URL
// the client must be redirected to.
func (b *Bridge) BeginAuth(w http.ResponseWriter, r *http.Request, name entities.OAuthProvider) (string, error) {
	provider, err := b.registry.Get(name)
	if err != nil {
		return "", err
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	// A stale or tampered cookie yields a fresh session, which is overwritten here
	session, _ := b.cookies.Get(r, StateCookieName)
	session.Values[stateKey] = state
	session.Values[providerKey] = string(name)
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}

	return provider.AuthCodeURL(state), nil
}

// HandleCallback validates the provider's response, exchanges the code and
// returns the matching local user, creating it on first sign-in.
//
// Provider-reported errors, state mismatches and exchange failures wrap
// ErrAuthProviderFailure. User store failures are returned as-is.
func (b *Bridge) HandleCallback(w http.ResponseWriter, r *http.Request, name entities.OAuthProvider) (*entities.User, error) {
	provider, err := b.registry.Get(name)
	if err != nil {
		return nil, err
	}

	session, _ := b.cookies.Get(r, StateCookieName)
	expectedState, _ := session.Values[stateKey].(string)
	expectedProvider, _ := session.Values[providerKey].(string)

	// State is single use
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		slog.Warn("failed to clear oauth state cookie", "error", err)
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		return nil, fmt.Errorf("%w: provider returned %q", ErrAuthProviderFailure, providerErr)
	}

	receivedState := query.Get("state")
	if expectedState == "" || expectedProvider != string(name) ||
		subtle.ConstantTimeCompare([]byte(expectedState), []byte(receivedState)) != 1 {
		return nil, fmt.Errorf("%w: %w", ErrAuthProviderFailure, ErrStateMismatch)
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no authorization code received", ErrAuthProviderFailure)
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthProviderFailure, err)
	}
	if profile.Subject == "" {
		return nil, fmt.Errorf("%w: %w", ErrAuthProviderFailure, ErrMissingSubject)
	}

	user, err := b.users.FindOrCreateByExternalID(r.Context(), name, profile.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s user: %w", name, err)
	}
	return user, nil
}

func generateState() (string, error) {
	b := make([]byte, stateByteSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
