package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/entities"
	"github.com/mrlokans/secrets/internal/metrics"
)

// SubmitForm is the body of POST /submit.
type SubmitForm struct {
	Secret string `form:"secret" binding:"required,notblank,max=2000"`
}

// PagesController serves the landing page and the secrets pages.
type PagesController struct {
	secrets          SecretStore
	events           auth.AuthEventLogger
	showErrorDetails bool
}

// NewPagesController creates the controller. events may be nil.
func NewPagesController(secrets SecretStore, events auth.AuthEventLogger, showErrorDetails bool) *PagesController {
	return &PagesController{
		secrets:          secrets,
		events:           events,
		showErrorDetails: showErrorDetails,
	}
}

// Home renders the landing page
// GET /
func (pc *PagesController) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", auth.PageData(c, gin.H{
		"Title": "Secrets",
	}))
}

// SecretsPage lists every submitted secret
// GET /secrets
func (pc *PagesController) SecretsPage(c *gin.Context) {
	users, err := pc.secrets.ListUsersWithSecrets(c.Request.Context())
	if err != nil {
		auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Secrets could not be loaded.", err, pc.showErrorDetails)
		return
	}

	c.HTML(http.StatusOK, "secrets.html", auth.PageData(c, gin.H{
		"Title": "Secrets",
		"Users": users,
	}))
}

// SubmitPage renders the submission form
// GET /submit
func (pc *PagesController) SubmitPage(c *gin.Context) {
	c.HTML(http.StatusOK, "submit.html", auth.PageData(c, gin.H{
		"Title": "Submit a Secret",
		"Error": c.Query("error"),
	}))
}

// Submit stores the current user's secret, replacing any previous one
// POST /submit
func (pc *PagesController) Submit(c *gin.Context) {
	user, err := auth.RequireUser(c)
	if err != nil {
		metrics.RecordSubmission(metrics.ResultFailure)
		c.Redirect(http.StatusFound, "/login?next=/submit")
		return
	}

	var form SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.RecordSubmission(metrics.ResultFailure)
		c.HTML(http.StatusBadRequest, "submit.html", auth.PageData(c, gin.H{
			"Title":  "Submit a Secret",
			"Secret": form.Secret,
			"Error":  auth.FormErrorMessage(err),
		}))
		return
	}

	if err := pc.secrets.UpdateSecret(c.Request.Context(), user.ID, form.Secret); err != nil {
		metrics.RecordSubmission(metrics.ResultError)
		pc.logEvent(c, user.ID, false)
		auth.RenderErrorPage(c, http.StatusServiceUnavailable, "Your secret could not be saved.", err, pc.showErrorDetails)
		return
	}

	metrics.RecordSubmission(metrics.ResultSuccess)
	pc.logEvent(c, user.ID, true)
	slog.Info("secret submitted", "user_id", user.ID)

	c.Redirect(http.StatusFound, "/secrets")
}

func (pc *PagesController) logEvent(c *gin.Context, userID uint, success bool) {
	if pc.events == nil {
		return
	}
	pc.events.LogAuth(userID, entities.AuditActionSubmitSecret, "", c.ClientIP(), c.Request.UserAgent(), success)
}

// NotFound renders the error page for unknown routes.
func (pc *PagesController) NotFound(c *gin.Context) {
	auth.RenderErrorPage(c, http.StatusNotFound, "Page not found.", nil, false)
}
