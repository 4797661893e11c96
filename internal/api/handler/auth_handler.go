package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/api/session"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	sessions    *session.Manager
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, sessions *session.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, log: log}
}

type loginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login authenticates with email and password and sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	s, _, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues(domain.ProviderLocal, "invalid_credentials").Inc()
			return errorJSON(c, http.StatusUnauthorized, "invalid email or password")
		}
		metrics.LoginsTotal.WithLabelValues(domain.ProviderLocal, "error").Inc()
		return err
	}

	h.sessions.Set(c, s)
	metrics.LoginsTotal.WithLabelValues(domain.ProviderLocal, "success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "login successful"})
}

// Logout clears the session cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "logout successful"})
}
