package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/metrics"
	"github.com/mrlokans/secrets/internal/views"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.AuthService == nil || cfg.SessionManager == nil || cfg.Secrets == nil {
		return nil, fmt.Errorf("router requires an auth service, a session manager and a secret store")
	}
	auth.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before the session middleware so that the session
	// context survives CSRF's request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	router.Use(cfg.SessionManager.SessionLoadSave())

	authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager)
	router.Use(authMiddleware.Handler())

	tmpl, err := views.Templates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	static, err := views.Static(cfg.StaticPath)
	if err != nil {
		return nil, err
	}
	router.StaticFS("/static", static)

	// A nil *audit.Service must not become a non-nil interface
	var events auth.AuthEventLogger
	if cfg.Audit != nil {
		events = cfg.Audit
	}

	var providers []string
	if cfg.OAuthBridge != nil {
		providers = cfg.OAuthBridge.Registry().Names()
	}

	// Health endpoints
	var pinger Pinger
	if cfg.Database != nil {
		pinger = cfg.Database
	}
	health := NewHealthController(pinger, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// Local registration, login and logout
	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, events, auth.ControllerConfig{
		Providers:        providers,
		ShowErrorDetails: cfg.ShowErrorDetails,
	})
	authController.RegisterRoutes(router)

	// Provider sign-in
	if cfg.OAuthBridge != nil && len(providers) > 0 {
		oauthController := NewOAuthController(cfg.OAuthBridge, cfg.SessionManager, events, cfg.ShowErrorDetails)
		router.GET("/auth/:provider", oauthController.Begin)
		router.GET("/auth/:provider/secrets", oauthController.Callback)
	}

	// UI routes
	pages := NewPagesController(cfg.Secrets, events, cfg.ShowErrorDetails)
	router.GET("/", pages.Home)
	router.GET("/secrets", authMiddleware.RequireAuth(), pages.SecretsPage)
	router.GET("/submit", pages.SubmitPage)
	router.POST("/submit", authMiddleware.RequireAuth(), pages.Submit)
	router.NoRoute(pages.NotFound)

	if cfg.Audit != nil {
		activity := NewActivityController(cfg.Audit, cfg.ShowErrorDetails)
		router.GET("/activity", authMiddleware.RequireAuth(), activity.ActivityPage)
	}

	return router, nil
}
