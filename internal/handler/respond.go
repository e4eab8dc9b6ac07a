package handler

import (
	"errors"
	"net/http"
	"strconv"

	"order-service/internal/service"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps a service error onto a status code and JSON body.
// Unexpected errors are echoed under "error" next to the fallback message.
func respondError(c echo.Context, err error, fallback string) error {
	log := logger.FromContext(c)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrAlreadyInvoiced),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInUse):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		log.Error(fallback, zap.Error(err))
		return c.JSON(status, echo.Map{"message": fallback, "error": err.Error()})
	}

	msg, ok := service.UserMessage(err)
	if !ok {
		msg = fallback
	}
	log.Warn(msg, zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"message": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": msg})
}

// paramID parses the :id path parameter
func paramID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
