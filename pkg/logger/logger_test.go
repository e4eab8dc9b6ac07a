package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"order-service/pkg/config"
)

func TestInitLogger(t *testing.T) {
	cfg := &config.Config{ServiceName: "order-service"}
	cfg.Server.Env = "development"
	cfg.Log.Level = "not-a-level"

	require.NoError(t, InitLogger(cfg))
	assert.NotNil(t, GetLogger())
	assert.True(t, GetLogger().Core().Enabled(zap.InfoLevel))
	assert.False(t, GetLogger().Core().Enabled(zap.DebugLevel))
}

func TestFromContextPrefersStoredLogger(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	core, logs := observer.New(zap.InfoLevel)
	WithContext(c, zap.New(core))

	FromContext(c).Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestMiddlewareLogsRequest(t *testing.T) {
	e := echo.New()
	core, logs := observer.New(zap.InfoLevel)

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			WithContext(c, zap.New(core))
			return next(c)
		}
	})
	e.Use(Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
}
