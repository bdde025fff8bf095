package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	mwecho "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimit allows requests per client IP at an average of requests per
// window, with bursts up to requests.
func RateLimit(requests int, window time.Duration, message string) echo.MiddlewareFunc {
	store := mwecho.NewRateLimiterMemoryStoreWithConfig(mwecho.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(window / time.Duration(requests)),
		Burst:     requests,
		ExpiresIn: window,
	})

	return mwecho.RateLimiterWithConfig(mwecho.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, message)
		},
	})
}
