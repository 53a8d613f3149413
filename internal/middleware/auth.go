package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"iconforge/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// NewKeyfunc builds the verification keyfunc for the identity provider's
// tokens: JWKS-backed when a JWKS URL is configured (the provider rotates
// RS256 keys), otherwise an HS256 shared secret for development.
func NewKeyfunc(jwksURL, secret string) (jwt.Keyfunc, error) {
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				log.Printf("JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			return nil, err
		}
		return jwks.Keyfunc, nil
	}
	return func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, nil
}

// Auth validates the bearer token and injects the caller's opaque user ID
// into the request context. Every protected route sits behind this.
func Auth(keyFn jwt.Keyfunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			token, err := jwt.Parse(tokenString, keyFn)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing subject in token")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, sub)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
