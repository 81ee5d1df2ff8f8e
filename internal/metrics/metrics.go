package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Auth event names.
const (
	EventRegister     = "register"
	EventLogin        = "login"
	EventResetRequest = "reset_request"
	EventResetConsume = "reset_consume"
	EventUserDelete   = "user_delete"
	EventAuthenticate = "authenticate"
	EventResetSweep   = "reset_sweep"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeRejected   = "rejected"
)

// Recorder counts security-relevant events.
type Recorder interface {
	AuthEvent(event, outcome string)
}

// Nop discards every event.
type Nop struct{}

// AuthEvent implements Recorder.
func (Nop) AuthEvent(string, string) {}

// Metrics holds the prometheus collectors for the API.
type Metrics struct {
	authEvents      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cartpod",
			Name:      "auth_events_total",
			Help:      "Authentication and authorization events by outcome.",
		}, []string{"event", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cartpod",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cartpod",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.authEvents, m.requests, m.requestDuration)
	return m
}

// AuthEvent implements Recorder.
func (m *Metrics) AuthEvent(event, outcome string) {
	m.authEvents.WithLabelValues(event, outcome).Inc()
}

// Middleware records request counts and latency keyed by the matched route,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
