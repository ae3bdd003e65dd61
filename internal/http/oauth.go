package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/metrics"
	"github.com/mrlokans/secrets/internal/oauth2"
)

// OAuthController exposes the provider sign-in routes.
type OAuthController struct {
	bridge           *oauth2.Bridge
	sessions         *auth.SessionManager
	events           auth.AuthEventLogger
	showErrorDetails bool
}

// NewOAuthController creates the controller. events may be nil.
func NewOAuthController(bridge *oauth2.Bridge, sessions *auth.SessionManager, events auth.AuthEventLogger, showErrorDetails bool) *OAuthController {
	return &OAuthController{
		bridge:           bridge,
		sessions:         sessions,
		events:           events,
		showErrorDetails: showErrorDetails,
	}
}

// Begin redirects to the provider's consent screen
// GET /auth/:provider
func (oc *OAuthController) Begin(c *gin.Context) {
	name := entities.OAuthProvider(c.Param("provider"))

	redirectURL, err := oc.bridge.BeginAuth(c.Writer, c.Request, name)
	if err != nil {
		if errors.Is(err, oauth2.ErrProviderNotFound) {
			auth.RenderErrorPage(c, http.StatusNotFound, "Unknown sign-in provider.", nil, false)
			return
		}
		auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Sign-in is unavailable right now.", err, oc.showErrorDetails)
		return
	}

	c.Redirect(http.StatusFound, redirectURL)
}

// Callback completes the provider flow and starts a session
// GET /auth/:provider/secrets
func (oc *OAuthController) Callback(c *gin.Context) {
	name := entities.OAuthProvider(c.Param("provider"))

	user, err := oc.bridge.HandleCallback(c.Writer, c.Request, name)
	if err != nil {
		switch {
		case errors.Is(err, oauth2.ErrProviderNotFound):
			auth.RenderErrorPage(c, http.StatusNotFound, "Unknown sign-in provider.", nil, false)
		case errors.Is(err, oauth2.ErrAuthProviderFailure):
			metrics.RecordLogin(metrics.MethodOAuth, metrics.ResultFailure)
			oc.logEvent(c, 0, string(name), false)
			slog.Warn("oauth sign-in failed", "provider", name, "error", err)
			c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape("Sign-in with "+string(name)+" failed. Please try again."))
		default:
			metrics.RecordLogin(metrics.MethodOAuth, metrics.ResultError)
			auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Sign-in is unavailable right now.", err, oc.showErrorDetails)
		}
		return
	}

	if _, err := oc.sessions.Login(c.Request.Context(), user.ID); err != nil {
		metrics.RecordLogin(metrics.MethodOAuth, metrics.ResultError)
		auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Could not start a session.", err, oc.showErrorDetails)
		return
	}

	metrics.RecordLogin(metrics.MethodOAuth, metrics.ResultSuccess)
	oc.logEvent(c, user.ID, string(name), true)
	slog.Info("oauth sign-in", "provider", name, "user_id", user.ID)

	c.Redirect(http.StatusFound, auth.DefaultAfterLogin)
}

func (oc *OAuthController) logEvent(c *gin.Context, userID uint, provider string, success bool) {
	if oc.events == nil {
		return
	}
	oc.events.LogAuth(userID, entities.AuditActionOAuthLogin, provider, c.ClientIP(), c.Request.UserAgent(), success)
}
