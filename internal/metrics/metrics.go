package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the server
type Registry struct {
	ActivationsTotal    *prometheus.CounterVec
	ValidationsTotal    *prometheus.CounterVec
	AdminActionsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with its own prometheus.Registry so tests
// and multiple servers in one process never collide.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.ActivationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "licserver_activations_total",
			Help: "License activation attempts by result code",
		},
		[]string{"result"},
	)

	r.ValidationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "licserver_validations_total",
			Help: "License validation attempts by result code",
		},
		[]string{"result"},
	)

	r.AdminActionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "licserver_admin_actions_total",
			Help: "Administrative license operations by action",
		},
		[]string{"action"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "licserver_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	return r
}

// result labels a client call: "success" or the error code.
func result(code string) string {
	if code == "" {
		return "success"
	}
	return code
}

// RecordActivation counts an activation by its error code ("" on success).
func (r *Registry) RecordActivation(code string) {
	r.ActivationsTotal.WithLabelValues(result(code)).Inc()
}

// RecordValidation counts a validation by its error code ("" on success).
func (r *Registry) RecordValidation(code string) {
	r.ValidationsTotal.WithLabelValues(result(code)).Inc()
}

func (r *Registry) RecordAdminAction(action string) {
	r.AdminActionsTotal.WithLabelValues(action).Inc()
}

// RecordHTTPRequest records a request against its route pattern.
func (r *Registry) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	r.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Middleware times every request. The route label is the echo path pattern
// so ids never become label values.
func (r *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			r.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
