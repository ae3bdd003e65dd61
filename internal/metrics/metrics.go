// Package metrics exposes Prometheus counters for HTTP traffic and
// authentication outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the auth counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Login method labels.
const (
	MethodPassword = "password"
	MethodOAuth    = "oauth"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secrets_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secrets_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secrets_logins_total",
			Help: "Login attempts by method and result",
		},
		[]string{"method", "result"},
	)

	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secrets_registrations_total",
			Help: "Local registrations by result",
		},
		[]string{"result"},
	)

	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secrets_submissions_total",
			Help: "Secret submissions by result",
		},
		[]string{"result"},
	)
)

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route patterns keep label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordLogin(method, result string) {
	loginsTotal.WithLabelValues(method, result).Inc()
}

func RecordRegistration(result string) {
	registrationsTotal.WithLabelValues(result).Inc()
}

func RecordSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}
