package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/pkg/reqctx"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusRule maps a domain sentinel to a response. An empty message means
// the wrapped error text is safe to return as is.
type statusRule struct {
	target  error
	code    int
	message string
}

var statusRules = []statusRule{
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{domain.ErrInvalidSession, http.StatusUnauthorized, "authentication required"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrWeakPassword, http.StatusBadRequest, ""},
	{domain.ErrInvalidUser, http.StatusBadRequest, ""},
	{domain.ErrMissingIdentityClaims, http.StatusBadRequest, ""},
	{domain.ErrModelNotLoaded, http.StatusServiceUnavailable, "prediction model not initialized"},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Domain errors
// get their mapped status; anything unrecognised is logged and answered 500
// without detail.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			req := c.Request()
			log.Error().
				Err(err).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("request_id", reqctx.RequestID(req.Context())).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			return http.StatusInternalServerError, "internal server error"
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, r := range statusRules {
		if errors.Is(err, r.target) {
			if r.message == "" {
				return r.code, err.Error()
			}
			return r.code, r.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
