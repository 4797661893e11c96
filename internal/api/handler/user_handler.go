package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthrisk/risk-api/internal/api/metrics"
	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// UserHandler handles account management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type registerRequest struct {
	Name                  string `json:"name" validate:"required,max=100"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"required"`
	IsGoogleAuthenticated bool   `json:"isGoogleAuthenticated"`
}

type changePasswordRequest struct {
	ID          string `json:"id" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Register creates a Client account.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Header       201   {string}  Location  "/api/user/{id}"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/user/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Register(c.Request().Context(), domain.Registration{
		Name:                      req.Name,
		Email:                     req.Email,
		Password:                  req.Password,
		IsExternallyAuthenticated: req.IsGoogleAuthenticated,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWeakPassword) || errors.Is(err, domain.ErrInvalidUser) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		return err
	}

	metrics.UsersRegisteredTotal.Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/api/user/"+user.ID)
	return c.JSON(http.StatusCreated, user)
}

// List returns every account.
//
// @Summary      List users
// @Tags         user
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/user [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one account.
//
// @Summary      Get a user by id
// @Tags         user
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the password of the caller's own account.
//
// @Summary      Change password
// @Tags         user
// @Accept       json
// @Param        body  body  changePasswordRequest  true  "Target account and new password"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/user/changepassword [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Request().Context(), claims, req.ID, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrWeakPassword) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an account.
//
// @Summary      Delete a user
// @Tags         user
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.UsersDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
