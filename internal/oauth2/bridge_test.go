package oauth2

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/secrets/internal/entities"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!!")

type fakeProvider struct {
	name     entities.OAuthProvider
	subject  string
	err      error
	lastCode string
}

func (p *fakeProvider) Name() entities.OAuthProvider { return p.name }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*Profile, error) {
	p.lastCode = code
	if p.err != nil {
		return nil, p.err
	}
	return &Profile{Provider: p.name, Subject: p.subject}, nil
}

type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	bySub  map[string]*entities.User
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{bySub: make(map[string]*entities.User)}
}

func (m *memoryUsers) FindOrCreateByExternalID(_ context.Context, provider entities.OAuthProvider, subject string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := string(provider) + ":" + subject
	if u, ok := m.bySub[key]; ok {
		return u, nil
	}
	m.nextID++
	u := &entities.User{ID: m.nextID, Provider: &provider, Subject: &subject}
	m.bySub[key] = u
	return u, nil
}

func setupBridge(subject string) (*Bridge, *fakeProvider, *memoryUsers) {
	provider := &fakeProvider{name: entities.OAuthProviderGoogle, subject: subject}
	registry := NewRegistry()
	registry.Register(provider)
	users := newMemoryUsers()
	return NewBridge(registry, users, testSecret, false), provider, users
}

// begin runs the first leg and returns the state and the state cookie.
func begin(t *testing.T, b *Bridge) (string, *http.Cookie) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	redirect, err := b.BeginAuth(w, r, entities.OAuthProviderGoogle)
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	for _, c := range w.Result().Cookies() {
		if c.Name == StateCookieName {
			assert.True(t, c.HttpOnly)
			assert.Equal(t, "/auth", c.Path)
			return state, c
		}
	}
	t.Fatal("state cookie not set")
	return "", nil
}

func callback(b *Bridge, query string, cookie *http.Cookie) (*entities.User, *httptest.ResponseRecorder, error) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/google/secrets?"+query, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	user, err := b.HandleCallback(w, r, entities.OAuthProviderGoogle)
	return user, w, err
}

func TestBridge_FullFlow(t *testing.T) {
	b, provider, _ := setupBridge("sub-1")

	state, cookie := begin(t, b)
	user, w, err := callback(b, "state="+url.QueryEscape(state)+"&code=abc", cookie)

	require.NoError(t, err)
	assert.Equal(t, "abc", provider.lastCode)
	require.NotNil(t, user.Subject)
	assert.Equal(t, "sub-1", *user.Subject)
	assert.False(t, user.HasLocalCredential())

	// The state cookie is expired after use
	for _, c := range w.Result().Cookies() {
		if c.Name == StateCookieName {
			assert.Less(t, c.MaxAge, 0)
		}
	}
}

func TestBridge_FindOrCreateIsIdempotent(t *testing.T) {
	b, _, _ := setupBridge("sub-1")

	state, cookie := begin(t, b)
	first, _, err := callback(b, "state="+url.QueryEscape(state)+"&code=abc", cookie)
	require.NoError(t, err)

	state, cookie = begin(t, b)
	second, _, err := callback(b, "state="+url.QueryEscape(state)+"&code=def", cookie)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestBridge_Failures(t *testing.T) {
	b, _, _ := setupBridge("sub-1")
	state, cookie := begin(t, b)

	tests := []struct {
		name   string
		query  string
		cookie *http.Cookie
	}{
		{"provider reported error", "error=access_denied&state=" + url.QueryEscape(state), cookie},
		{"state mismatch", "state=forged&code=abc", cookie},
		{"missing state cookie", "state=" + url.QueryEscape(state) + "&code=abc", nil},
		{"tampered cookie", "state=" + url.QueryEscape(state) + "&code=abc", &http.Cookie{Name: StateCookieName, Value: "garbage"}},
		{"missing code", "state=" + url.QueryEscape(state), cookie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, _, err := callback(b, tt.query, tt.cookie)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, ErrAuthProviderFailure)
		})
	}
}

func TestBridge_ExchangeFailure(t *testing.T) {
	b, provider, users := setupBridge("sub-1")
	provider.err = errors.New("token endpoint down")

	state, cookie := begin(t, b)
	_, _, err := callback(b, "state="+url.QueryEscape(state)+"&code=abc", cookie)

	assert.ErrorIs(t, err, ErrAuthProviderFailure)
	assert.Empty(t, users.bySub)
}

func TestBridge_EmptySubjectRejected(t *testing.T) {
	b, _, users := setupBridge("")

	state, cookie := begin(t, b)
	_, _, err := callback(b, "state="+url.QueryEscape(state)+"&code=abc", cookie)

	assert.ErrorIs(t, err, ErrAuthProviderFailure)
	assert.ErrorIs(t, err, ErrMissingSubject)
	assert.Empty(t, users.bySub)
}

func TestBridge_StoreFailureIsNotProviderFailure(t *testing.T) {
	b, _, users := setupBridge("sub-1")
	users.err = errors.New("database is locked")

	state, cookie := begin(t, b)
	_, _, err := callback(b, "state="+url.QueryEscape(state)+"&code=abc", cookie)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthProviderFailure)
}

func TestBridge_UnknownProvider(t *testing.T) {
	b, _, _ := setupBridge("sub-1")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/auth/github", nil)
	_, err := b.BeginAuth(w, r, "github")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = b.HandleCallback(w, r, "github")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Zero(t, r.Len())

	r.Register(&fakeProvider{name: "zeta"})
	r.Register(&fakeProvider{name: entities.OAuthProviderGoogle})

	assert.Equal(t, []string{"google", "zeta"}, r.Names())

	p, err := r.Get(entities.OAuthProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, entities.OAuthProviderGoogle, p.Name())
}
