package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/version"
)

// VersionHeader carries the server version on every response.
const VersionHeader = "X-Licserver-Version"

// Context keys
type adminKey struct{}

// WithAdmin returns a copy of ctx carrying the authenticated admin.
func WithAdmin(ctx context.Context, a *account.Account) context.Context {
	return context.WithValue(ctx, adminKey{}, a)
}

// AdminFrom retrieves the authenticated admin, or nil outside AdminJWTAuth.
func AdminFrom(ctx context.Context) *account.Account {
	if a, ok := ctx.Value(adminKey{}).(*account.Account); ok {
		return a
	}
	return nil
}

// CurrentAdmin is AdminFrom for an echo context.
func CurrentAdmin(c echo.Context) *account.Account {
	return AdminFrom(c.Request().Context())
}

// Version adds the app version to the response headers.
func Version() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(VersionHeader, version.Version)
			return next(c)
		}
	}
}
