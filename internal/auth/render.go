package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageData adds the values every page template expects to data.
func PageData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = CurrentUser(c)
	data["CSRFToken"] = GetCSRFToken(c)
	data["CSRFFieldName"] = CSRFFieldName
	return data
}

// RenderErrorPage renders error.html naming the failing path. The underlying
// error is only shown when showDetail is set (development).
func RenderErrorPage(c *gin.Context, status int, message string, err error, showDetail bool) {
	if err != nil {
		slog.Error("request failed",
			"path", c.Request.URL.Path,
			"status", status,
			"error", err,
			"request_id", c.GetString(ContextKeyRequestID),
		)
	}

	data := gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
		"Path":    c.Request.Method + " " + c.Request.URL.Path,
	}
	if showDetail && err != nil {
		data["Detail"] = err.Error()
	}
	c.HTML(status, "error.html", PageData(c, data))
}
