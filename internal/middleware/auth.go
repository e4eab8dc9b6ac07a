package middleware

import (
	"net/http"
	"strings"

	"order-service/pkg/jwtutil"
	"order-service/pkg/logger"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsKey = "user"

// JWTAuth validates the bearer token and stores its claims in the context
func JWTAuth(j *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token no proporcionado"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("malformed_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Formato de token inválido"})
			}

			claims, err := j.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token inválido o expirado"})
			}

			c.Set(claimsKey, claims)
			logger.WithContext(c, log.With(zap.Uint("user_id", claims.UserID), zap.String("role", claims.Role)))
			return next(c)
		}
	}
}

// RequireRoles rejects requests whose token role is not in allowed.
// It must run after JWTAuth.
func RequireRoles(allowed ...string) echo.MiddlewareFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				prometheus.RecordAuthError("missing_claims")
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Acceso denegado"})
			}
			if _, ok := set[claims.Role]; !ok {
				logger.FromContext(c).Warn("Role not allowed",
					zap.String("role", claims.Role),
					zap.Strings("allowed", allowed),
					zap.String("path", c.Path()))
				prometheus.RecordAuthError("forbidden_role")
				return c.JSON(http.StatusForbidden, echo.Map{"message": "No tienes permiso para acceder a este recurso"})
			}
			return next(c)
		}
	}
}

// GetClaims returns the token claims stored by JWTAuth
func GetClaims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok && claims != nil
}
