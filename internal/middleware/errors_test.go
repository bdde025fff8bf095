package middleware_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"lprime.com/licserver/internal/middleware"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"http error keeps message", echo.NewHTTPError(http.StatusUnauthorized, "invalid API key"), http.StatusUnauthorized, `{"error":"invalid API key"}`},
		{"not found route", echo.ErrNotFound, http.StatusNotFound, `{"error":"Not Found"}`},
		{"plain error is hidden", errors.New("database is locked"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/x")
			middleware.ErrorHandler(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, got)
			}
		})
	}
}
