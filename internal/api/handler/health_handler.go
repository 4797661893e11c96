package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/infrastructure/health"
)

// HealthHandler serves the health report endpoints. Each route runs the
// checks carrying its tag; /health runs all of them.
type HealthHandler struct {
	registry *health.Registry
}

func NewHealthHandler(registry *health.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Report returns a handler running the checks tagged tag.
//
// @Summary      Health report
// @Tags         health
// @Produce      json
// @Success      200  {object}  health.Report
// @Failure      503  {object}  health.Report
// @Router       /health [get]
// @Router       /health/ready [get]
// @Router       /health/db [get]
// @Router       /health/ml [get]
func (h *HealthHandler) Report(tag string) echo.HandlerFunc {
	return func(c echo.Context) error {
		rep := h.registry.Run(c.Request().Context(), tag)
		code := http.StatusOK
		if rep.Status == health.Unhealthy {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, rep)
	}
}
