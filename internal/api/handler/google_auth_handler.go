package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

const (
	stateCookieName = "risk_oauth_state"
	stateCookiePath = "/api/googleauth"
	stateTTL        = 10 * time.Minute
)

// GoogleRoutes are the browser destinations after a Google round trip.
type GoogleRoutes struct {
	Home  string
	Login string
	Error string
}

type GoogleAuthHandler struct {
	provider     ports.IdentityProvider
	authService  ports.AuthService
	sessions     *session.Manager
	state        ports.StateSigner
	routes       GoogleRoutes
	secureCookie bool
	log          zerolog.Logger
}

func NewGoogleAuthHandler(
	provider ports.IdentityProvider,
	authService ports.AuthService,
	sessions *session.Manager,
	state ports.StateSigner,
	routes GoogleRoutes,
	secureCookie bool,
	log zerolog.Logger,
) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		provider:     provider,
		authService:  authService,
		sessions:     sessions,
		state:        state,
		routes:       routes,
		secureCookie: secureCookie,
		log:          log,
	}
}

type googleUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignIn starts the Google authorization-code flow.
//
// @Summary      Start Google sign-in
// @Tags         googleauth
// @Success      302
// @Failure      500  {object}  map[string]string
// @Router       /api/googleauth/signin [get]
func (h *GoogleAuthHandler) SignIn(c echo.Context) error {
	state, err := h.state.New()
	if err != nil {
		h.log.Error().Err(err).Msg("generate oauth state")
		return errorJSON(c, http.StatusInternalServerError, "unable to start sign-in")
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.provider.AuthURL(state))
}

// Callback completes the Google flow, provisions the local account on first
// sign-in and sets the session cookie.
//
// @Summary      Google sign-in callback
// @Tags         googleauth
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  false  "Anti-forgery state"
// @Param        error  query  string  false  "Provider error"
// @Success      302
// @Router       /api/googleauth/callback [get]
func (h *GoogleAuthHandler) Callback(c echo.Context) error {
	expected := ""
	if cookie, err := c.Cookie(stateCookieName); err == nil {
		expected = cookie.Value
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if providerErr := c.QueryParam("error"); providerErr != "" {
		h.log.Warn().Str("provider_error", providerErr).Msg("external authentication failed")
		return h.reject(c)
	}
	code, state := c.QueryParam("code"), c.QueryParam("state")
	if code == "" || state == "" || state != expected || !h.state.Verify(state) {
		h.log.Warn().Msg("external authentication callback with missing code or bad state")
		return h.reject(c)
	}

	ctx := c.Request().Context()
	identity, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.log.Warn().Err(err).Msg("external authentication failed")
		return h.reject(c)
	}

	s, user, err := h.authService.ReconcileExternal(ctx, *identity)
	if err != nil {
		if errors.Is(err, domain.ErrMissingIdentityClaims) {
			h.log.Warn().Msg("required claims missing from external identity")
			return h.reject(c)
		}
		h.log.Error().Err(err).Msg("processing external authentication callback")
		metrics.LoginsTotal.WithLabelValues(domain.ProviderGoogle, "error").Inc()
		return c.Redirect(http.StatusFound, h.routes.Error)
	}

	h.sessions.Set(c, s)
	metrics.LoginsTotal.WithLabelValues(domain.ProviderGoogle, "success").Inc()
	h.log.Info().Str("user_id", user.ID).Msg("external sign-in")
	return c.Redirect(http.StatusFound, h.routes.Home)
}

func (h *GoogleAuthHandler) reject(c echo.Context) error {
	metrics.LoginsTotal.WithLabelValues(domain.ProviderGoogle, "rejected").Inc()
	return c.Redirect(http.StatusFound, h.routes.Login)
}

// User returns the identity of the current session.
//
// @Summary      Current session identity
// @Tags         googleauth
// @Produce      json
// @Success      200  {object}  googleUserResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/googleauth/user [get]
func (h *GoogleAuthHandler) User(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, googleUserResponse{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	})
}

// Logout clears the session cookie and returns to the home route.
//
// @Summary      Logout
// @Tags         googleauth
// @Success      302
// @Router       /api/googleauth/logout [post]
func (h *GoogleAuthHandler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.Redirect(http.StatusFound, h.routes.Home)
}
