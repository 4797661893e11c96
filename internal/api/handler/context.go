package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
)

// ctxClaims returns the session claims stored by the LoadSession middleware.
// Route guards already reject anonymous requests; this is the fast-fail for
// handlers mounted without one.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	claims, ok := session.ClaimsFrom(c)
	if !ok {
		return domain.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return claims, nil
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}
