package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/auth"
)

// APIKeyHeader carries the shared application key on client endpoints.
const APIKeyHeader = "X-API-Key"

// AccountLookup resolves the admin named by a token.
type AccountLookup interface {
	Get(ctx context.Context, id string) (*account.Account, error)
}

// AppAPIKeyAuth validates the X-API-Key header against the configured
// application key. Used for CLIENT endpoints.
func AppAPIKeyAuth(appKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if appKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "application API key not configured")
			}

			key := c.Request().Header.Get(APIKeyHeader)
			if key == "" || !constantEqual(appKey, key) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid API key")
			}

			return next(c)
		}
	}
}

// AdminJWTAuth validates the bearer token and loads the admin it names.
// Inactive or deleted accounts are rejected even with a valid token.
func AdminJWTAuth(tokens *auth.TokenService, accounts AccountLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}

			claims, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			admin, err := accounts.Get(ctx, claims.AdminID)
			if err != nil {
				if errors.Is(err, account.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "account not found or inactive")
				}
				log.Error().Err(err).Str("admin_id", claims.AdminID).Msg("load admin account")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}
			if !admin.Active {
				return echo.NewHTTPError(http.StatusUnauthorized, "account not found or inactive")
			}

			c.SetRequest(c.Request().WithContext(WithAdmin(ctx, admin)))
			return next(c)
		}
	}
}

// constantEqual provides constant-time string equality to avoid timing attacks.
func constantEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
