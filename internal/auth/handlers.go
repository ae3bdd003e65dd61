package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/metrics"
)

// AuthEventLogger records authentication events for the audit trail.
type AuthEventLogger interface {
	LogAuth(userID uint, action entities.AuditAction, detail, ipAddr, userAgent string, success bool)
}

type noopEventLogger struct{}

func (noopEventLogger) LogAuth(uint, entities.AuditAction, string, string, string, bool) {}

// ControllerConfig holds presentation settings for the auth pages.
type ControllerConfig struct {
	// Providers lists the OAuth provider names offered on the login and register pages.
	Providers []string
	// ShowErrorDetails includes internal error text on error pages (development only).
	ShowErrorDetails bool
}

// AuthController handles the local registration, login and logout endpoints.
type AuthController struct {
	service  *Service
	sessions *SessionManager
	events   AuthEventLogger
	config   ControllerConfig
}

// NewAuthController creates a new authentication controller. events may be nil.
func NewAuthController(service *Service, sessions *SessionManager, events AuthEventLogger, cfg ControllerConfig) *AuthController {
	RegisterValidators()
	if events == nil {
		events = noopEventLogger{}
	}
	return &AuthController{
		service:  service,
		sessions: sessions,
		events:   events,
		config:   cfg,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
}

// RegisterPage renders the registration form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, DefaultAfterLogin)
		return
	}
	ac.renderForm(c, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Error": c.Query("error"),
	})
}

// Register creates a local user, starts a session and redirects to /secrets.
func (ac *AuthController) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.RecordRegistration(metrics.ResultFailure)
		ac.renderForm(c, http.StatusBadRequest, "register.html", gin.H{
			"Title":    "Register",
			"Username": form.Username,
			"Error":    FormErrorMessage(err),
		})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		ac.events.LogAuth(0, entities.AuditActionRegister, form.Username, c.ClientIP(), c.Request.UserAgent(), false)

		switch {
		case errors.Is(err, ErrDuplicateUsername):
			metrics.RecordRegistration(metrics.ResultFailure)
			ac.renderForm(c, http.StatusConflict, "register.html", gin.H{
				"Title":    "Register",
				"Username": form.Username,
				"Error":    "That username is already taken",
			})
		case errors.Is(err, ErrInvalidInput):
			metrics.RecordRegistration(metrics.ResultFailure)
			ac.renderForm(c, http.StatusBadRequest, "register.html", gin.H{
				"Title":    "Register",
				"Username": form.Username,
				"Error":    "Username and password must be 1-100 characters and at most 72 bytes",
			})
		default:
			metrics.RecordRegistration(metrics.ResultError)
			RenderErrorPage(c, http.StatusServiceUnavailable, "Registration is unavailable right now.", err, ac.config.ShowErrorDetails)
		}
		return
	}

	if _, err := ac.sessions.Login(c.Request.Context(), user.ID); err != nil {
		metrics.RecordRegistration(metrics.ResultError)
		RenderErrorPage(c, http.StatusServiceUnavailable, "Could not start a session.", err, ac.config.ShowErrorDetails)
		return
	}

	metrics.RecordRegistration(metrics.ResultSuccess)
	ac.events.LogAuth(user.ID, entities.AuditActionRegister, form.Username, c.ClientIP(), c.Request.UserAgent(), true)
	slog.Info("user registered", "user_id", user.ID)

	c.Redirect(http.StatusFound, DefaultAfterLogin)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, DefaultAfterLogin)
		return
	}
	ac.renderForm(c, http.StatusOK, "login.html", gin.H{
		"Title": "Login",
		"Next":  sanitizeRedirectPath(c.Query("next"), ""),
		"Error": c.Query("error"),
	})
}

// Login verifies credentials, starts a session and redirects to the
// requested local path or /secrets.
func (ac *AuthController) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.RecordLogin(metrics.MethodPassword, metrics.ResultFailure)
		ac.renderForm(c, http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login",
			"Username": form.Username,
			"Next":     sanitizeRedirectPath(form.Next, ""),
			"Error":    FormErrorMessage(err),
		})
		return
	}
	next := sanitizeRedirectPath(form.Next, DefaultAfterLogin)

	user, err := ac.service.Verify(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.RecordLogin(metrics.MethodPassword, metrics.ResultFailure)
			ac.events.LogAuth(0, entities.AuditActionLogin, form.Username, c.ClientIP(), c.Request.UserAgent(), false)
			ac.renderForm(c, http.StatusUnauthorized, "login.html", gin.H{
				"Title":    "Login",
				"Username": form.Username,
				"Next":     sanitizeRedirectPath(form.Next, ""),
				"Error":    "Invalid username or password",
			})
			return
		}
		metrics.RecordLogin(metrics.MethodPassword, metrics.ResultError)
		RenderErrorPage(c, http.StatusServiceUnavailable, "Login is unavailable right now.", err, ac.config.ShowErrorDetails)
		return
	}

	if _, err := ac.sessions.Login(c.Request.Context(), user.ID); err != nil {
		metrics.RecordLogin(metrics.MethodPassword, metrics.ResultError)
		RenderErrorPage(c, http.StatusServiceUnavailable, "Could not start a session.", err, ac.config.ShowErrorDetails)
		return
	}

	metrics.RecordLogin(metrics.MethodPassword, metrics.ResultSuccess)
	ac.events.LogAuth(user.ID, entities.AuditActionLogin, form.Username, c.ClientIP(), c.Request.UserAgent(), true)

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and always redirects to the landing page.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessions.UserID(c.Request.Context())
	if err := ac.sessions.Logout(c.Request.Context()); err != nil {
		slog.Warn("failed to destroy session", "user_id", userID, "error", err)
	}
	if userID != 0 {
		ac.events.LogAuth(userID, entities.AuditActionLogout, "", c.ClientIP(), c.Request.UserAgent(), true)
	}
	c.Redirect(http.StatusFound, "/")
}

func (ac *AuthController) renderForm(c *gin.Context, status int, name string, data gin.H) {
	data["Providers"] = ac.config.Providers
	c.HTML(status, name, PageData(c, data))
}
