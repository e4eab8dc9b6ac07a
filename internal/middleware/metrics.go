package middleware

import (
	"strconv"
	"time"

	"order-service/prometheus"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
			status = he.Code
		}
		prometheus.RecordHTTPRequest(c.Request().Method, c.Path(), strconv.Itoa(status), time.Since(start))

		return err
	}
}
