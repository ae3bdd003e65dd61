package auth

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFFieldName is the hidden form field carrying the CSRF token.
const CSRFFieldName = "gorilla.csrf.Token"

// CSRFTokenHeader is the header name for CSRF token in AJAX requests.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFMiddleware creates a Gin middleware for CSRF protection. Safe methods
// pass through; every other request needs the token from the rendered form.
// When secure is false the request is marked as plain HTTP so local
// development without TLS keeps working.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	csrfProtect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.FieldName(CSRFFieldName),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			// Store the CSRF token in the context for templates
			c.Set(contextKeyCSRFToken, csrf.Token(r))
			// Session middleware runs after this, so its context is added on top
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			// The error handler already wrote the response
			c.Abort()
		}
	}
}

// csrfErrorHandler sends form submissions back to the page they came from
// with an error, or renders a plain 403 when there is nowhere safe to go.
func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf validation failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))

	if referer, err := url.Parse(r.Referer()); err == nil && referer.Host == r.Host {
		if back := sanitizeRedirectPath(referer.Path, ""); back != "" {
			http.Redirect(w, r, back+"?error=Session+expired.+Please+try+again.", http.StatusSeeOther)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Session Expired</title></head>
<body style="font-family: system-ui; max-width: 400px; margin: 100px auto; text-align: center;">
<h1>Session Expired</h1>
<p>Your session has expired or the form submission was invalid.</p>
<p><a href="/">Start again</a></p>
</body>
</html>`))
}

// GetCSRFToken retrieves the CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(contextKeyCSRFToken); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
