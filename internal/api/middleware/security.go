package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; connect-src 'self'; font-src 'self';"
	referrerPolicy    = "strict-origin-when-cross-origin"
	permissionsPolicy = "camera=(), microphone=(), geolocation=()"
	hstsMaxAge        = 31536000
)

// SecurityHeaders sets the hardening headers on every response.
func SecurityHeaders() echo.MiddlewareFunc {
	secure := echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            hstsMaxAge,
		ContentSecurityPolicy: contentSecurityPolicy,
		ReferrerPolicy:        referrerPolicy,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := secure(next)
		return func(c echo.Context) error {
			c.Response().Header().Set("Permissions-Policy", permissionsPolicy)
			return h(c)
		}
	}
}

// SwaggerHeaders relaxes the content security policy for the swagger UI,
// which loads inline bootstrap scripts.
func SwaggerHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Del(echo.HeaderContentSecurityPolicy)
			return next(c)
		}
	}
}
