package handler

import (
	"net/http"

	"order-service/internal/service"

	"github.com/labstack/echo/v4"
)

// EmailLogHandler serves /api/email-logs
type EmailLogHandler struct {
	emails *service.EmailService
}

func NewEmailLogHandler(emails *service.EmailService) *EmailLogHandler {
	return &EmailLogHandler{emails: emails}
}

func (h *EmailLogHandler) List(c echo.Context) error {
	logs, err := h.emails.ListLogs(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al obtener los logs de email")
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *EmailLogHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	entry, err := h.emails.GetLog(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Error al obtener el log de email")
	}
	return c.JSON(http.StatusOK, entry)
}
