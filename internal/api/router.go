package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/healthrisk/risk-api/internal/api/handler"
	"github.com/healthrisk/risk-api/internal/api/middleware"
	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
	"github.com/healthrisk/risk-api/internal/infrastructure/health"
)

const bodyLimit = "1M"

// GoogleDeps wires the Google sign-in routes. A nil Provider leaves them
// unregistered.
type GoogleDeps struct {
	Provider ports.IdentityProvider
	State    ports.StateSigner
	Routes   handler.GoogleRoutes
}

// Dependencies are the services the router exposes over HTTP.
type Dependencies struct {
	Log            zerolog.Logger
	AuthService    ports.AuthService
	UserService    ports.UserService
	Predictor      ports.Predictor
	Sessions       *session.Manager
	SecureCookies  bool
	Google         GoogleDeps
	Health         *health.Registry
	RateLimitStore echomiddleware.RateLimiterStore
	// MetricsRegistry receives the HTTP metrics. Nil uses the default registry.
	MetricsRegistry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.MetricsRegistry != nil {
		registerer, gatherer = d.MetricsRegistry, d.MetricsRegistry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "riskapi",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	if d.RateLimitStore != nil {
		e.Use(middleware.RateLimit(d.RateLimitStore, d.Log))
	}
	e.Use(middleware.LoadSession(d.Sessions, d.Log))

	requireSession := middleware.RequireSession()
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Sessions, d.Log)
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	if d.Google.Provider != nil {
		googleHandler := handler.NewGoogleAuthHandler(
			d.Google.Provider, d.AuthService, d.Sessions, d.Google.State,
			d.Google.Routes, d.SecureCookies, d.Log,
		)
		google := e.Group("/api/googleauth")
		google.GET("/signin", googleHandler.SignIn)
		google.GET("/callback", googleHandler.Callback)
		google.GET("/user", googleHandler.User, requireSession)
		google.POST("/logout", googleHandler.Logout)
	}

	// --- User routes ---
	userHandler := handler.NewUserHandler(d.UserService)
	users := e.Group("/api/user")
	users.POST("/register", userHandler.Register)
	users.GET("", userHandler.List, requireAdmin)
	users.PUT("/changepassword", userHandler.ChangePassword, requireSession)
	users.GET("/:id", userHandler.Get, requireSession)
	users.DELETE("/:id", userHandler.Delete, requireAdmin)

	// --- Prediction routes ---
	strokeHandler := handler.NewStrokeHandler(d.Predictor)
	stroke := e.Group("/api/stroke")
	stroke.POST("/predict", strokeHandler.Predict)
	stroke.GET("/test", strokeHandler.Test)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Health)
	e.GET("/health", healthHandler.Report(""))
	e.GET("/health/ready", healthHandler.Report(health.TagReady))
	e.GET("/health/db", healthHandler.Report(health.TagDB))
	e.GET("/health/ml", healthHandler.Report(health.TagML))

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler, middleware.SwaggerHeaders())

	return e
}
