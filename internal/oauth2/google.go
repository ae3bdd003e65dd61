package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	xoauth2 "golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mrlokans/secrets/internal/entities"
)

// GoogleConfig configures the Google sign-in provider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. http://localhost:5000/auth/google/secrets
	UserInfoURL  string

	// Endpoint overrides google.Endpoint; used against fake servers in tests.
	Endpoint *xoauth2.Endpoint
	// HTTPClient is used for the token exchange and the profile request.
	HTTPClient *http.Client
}

// GoogleProvider signs users in with Google, requesting the "profile" scope
// and reading the "sub" claim from the userinfo endpoint.
type GoogleProvider struct {
	config      *xoauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleProvider creates a Google provider from cfg.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &GoogleProvider{
		config: &xoauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"profile"},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  client,
	}
}

func (p *GoogleProvider) Name() entities.OAuthProvider {
	return entities.OAuthProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, xoauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, ErrMissingSubject
	}

	return &Profile{Provider: p.Name(), Subject: info.Sub}, nil
}
