package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/unrolled/secure"
)

// SecureHeaders sets the standard browser hardening headers. HTTPS redirects
// are only enabled in production.
func SecureHeaders(production bool) echo.MiddlewareFunc {
	s := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
	return echo.WrapMiddleware(s.Handler)
}

// RateLimitByIP allows limit requests per window from one client address
func RateLimitByIP(limit int, window time.Duration) echo.MiddlewareFunc {
	limiter := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"Demasiadas solicitudes, intente más tarde"}`))
		}),
	)
	return echo.WrapMiddleware(limiter)
}
