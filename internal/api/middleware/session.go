package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
)

// LoadSession verifies the session cookie on every request and stores its
// claims on the context. It fails open: a missing or invalid cookie leaves
// the request anonymous and route guards decide. Sliding sessions past half
// their window are re-issued.
func LoadSession(m *session.Manager, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := m.Load(c)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					log.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid session cookie")
				}
				return next(c)
			}

			session.SetClaims(c, s.Claims)
			renewed, err := m.Renew(c, s)
			if err != nil {
				log.Warn().Err(err).Str("user_id", s.Claims.UserID).Msg("session renewal failed")
			} else if renewed {
				metrics.SessionsRenewedTotal.Inc()
			}
			return next(c)
		}
	}
}
