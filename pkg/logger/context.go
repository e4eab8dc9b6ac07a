package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	RequestIDKey = "X-Request-ID"
	contextKey   = "logger"
)

// FromContext retrieves the request logger from echo.Context
func FromContext(c echo.Context) *zap.Logger {
	if logger, ok := c.Get(contextKey).(*zap.Logger); ok {
		return logger
	}

	requestID, ok := c.Get(RequestIDKey).(string)
	if !ok {
		requestID = c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return GetLogger().With(zap.String("request_id", requestID))
}

// WithContext stores a request logger in echo.Context
func WithContext(c echo.Context, logger *zap.Logger) {
	c.Set(contextKey, logger)
}
