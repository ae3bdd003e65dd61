package oauth2

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mrlokans/secrets/internal/entities"
)

// Profile is the part of a provider's identity assertion that is trusted.
// Only Subject is ever persisted.
type Profile struct {
	Provider entities.OAuthProvider
	Subject  string
}

// Provider defines the interface for OAuth2 identity providers
type Provider interface {
	// Name returns the provider identifier used in routes (e.g. "google")
	Name() entities.OAuthProvider

	// AuthCodeURL builds the authorization URL carrying the given state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the caller's verified profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry manages registered OAuth2 providers
type Registry struct {
	mu        sync.RWMutex
	providers map[entities.OAuthProvider]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[entities.OAuthProvider]Provider),
	}
}

// Register adds a provider to the registry, replacing any with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name entities.OAuthProvider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
