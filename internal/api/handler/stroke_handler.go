package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// StrokeHandler serves stroke risk predictions.
type StrokeHandler struct {
	predictor ports.Predictor
}

func NewStrokeHandler(predictor ports.Predictor) *StrokeHandler {
	return &StrokeHandler{predictor: predictor}
}

// Predict scores a 17-feature record.
//
// @Summary      Predict stroke risk
// @Tags         stroke
// @Accept       json
// @Produce      json
// @Param        body  body      domain.StrokeInput  true  "Patient features"
// @Success      200   {object}  domain.Prediction
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/stroke/predict [post]
func (h *StrokeHandler) Predict(c echo.Context) error {
	var in domain.StrokeInput
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&in); err != nil {
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	p, err := h.predictor.Predict(in)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrModelNotLoaded) {
			return errorJSON(c, http.StatusServiceUnavailable, "prediction model not initialized")
		}
		return err
	}

	outcome := "not_at_risk"
	if p.IsAtRisk {
		outcome = "at_risk"
	}
	metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
	return c.JSON(http.StatusOK, p)
}

// Test is a plain liveness probe for the prediction routes.
//
// @Summary      Prediction API liveness
// @Tags         stroke
// @Produce      plain
// @Success      200  {string}  string
// @Router       /api/stroke/test [get]
func (h *StrokeHandler) Test(c echo.Context) error {
	return c.String(http.StatusOK, "api is running")
}
