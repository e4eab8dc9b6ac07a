package handler

import (
	"net/http"

	"order-service/internal/middleware"
	"order-service/internal/service"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves /api/auth
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an empleado account
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return badRequest(c, "Datos incompletos o inválidos")
	}

	user, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al registrar el usuario")
	}
	return c.JSON(http.StatusCreated, user)
}

// CreateUser lets an admin create an account with any role
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse user request", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	user, err := h.auth.CreateUser(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al crear el usuario")
	}
	return c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return badRequest(c, "Datos incompletos o inválidos")
	}

	result, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al iniciar sesión")
	}
	return c.JSON(http.StatusOK, result)
}

// Me returns the signed-in account
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token no proporcionado"})
	}
	user, err := h.auth.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Error al obtener el usuario")
	}
	return c.JSON(http.StatusOK, user)
}
