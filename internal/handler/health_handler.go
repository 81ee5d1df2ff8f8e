package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	database Pinger
	cache    Pinger
	log      logrus.FieldLogger
}

// NewHealthHandler creates a health handler. cache may be nil.
func NewHealthHandler(database, cache Pinger, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{database: database, cache: cache, log: log}
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status string `json:"status"`
	MySQL  string `json:"mysql"`
	Redis  string `json:"redis"`
}

// Live godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready godoc
// @Summary Readiness probe
// @Description Fails only when MySQL is unreachable. Redis is reported but optional.
// @Tags health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /readyz [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := ReadinessResponse{Status: "ok", MySQL: "up", Redis: "disabled"}
	status := http.StatusOK

	if err := h.database(ctx); err != nil {
		h.log.WithError(err).Warn("mysql readiness check failed")
		res.Status, res.MySQL = "unavailable", "down"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		res.Redis = "up"
		if err := h.cache(ctx); err != nil {
			h.log.WithError(err).Warn("redis readiness check failed")
			res.Redis = "down"
		}
	}
	return c.JSON(status, res)
}
