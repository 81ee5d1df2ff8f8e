package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AuthEvent(EventLogin, OutcomeFailure)
	m.AuthEvent(EventLogin, OutcomeFailure)
	m.AuthEvent(EventLogin, OutcomeSuccess)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues(EventLogin, OutcomeSuccess)))
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/cartpods/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "boom")
	})

	for _, path := range []string{"/cartpods/1", "/cartpods/2", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/cartpods/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/boom", "418")))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NotPanics(t, func() { r.AuthEvent(EventLogin, OutcomeSuccess) })
}
