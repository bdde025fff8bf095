package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/config"
	"lprime.com/licserver/internal/middleware"
	"lprime.com/licserver/internal/server"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "licenses.db")
	cfg.LicenseSecret = "server-test-license"
	cfg.AppAPIKey = "server-test-app-key"
	cfg.JWTSecret = "server-test-jwt"
	return cfg
}

func build(t *testing.T, cfg *config.Config) *server.Server {
	t.Helper()
	srv, err := server.Build(cfg)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	t.Cleanup(func() { srv.DB.Close() })
	return srv
}

func serve(srv *server.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)
	return rec
}

func TestBuildRejectsMissingSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "licenses.db")
	if _, err := server.Build(cfg); err == nil {
		t.Fatal("expected error for missing secrets")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := build(t, testConfig(t))

	t.Run("health", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/health", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp["status"] != "ok" || resp["timestamp"] == nil {
			t.Errorf("unexpected body %v", resp)
		}
		if rec.Header().Get(middleware.VersionHeader) == "" {
			t.Error("expected version header")
		}
	})

	t.Run("readyz", func(t *testing.T) {
		if rec := serve(srv, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})

	t.Run("unknown route is JSON 404", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/nope", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("expected JSON error body, got %s", rec.Body.String())
		}
	})
}

func TestClientAPIRequiresAppKey(t *testing.T) {
	cfg := testConfig(t)
	srv := build(t, cfg)

	rec := serve(srv, http.MethodPost, "/api/licenses/check", `{"licenseKey":"x"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without key, got %d", rec.Code)
	}

	rec = serve(srv, http.MethodPost, "/api/licenses/check", `{"licenseKey":"x"}`,
		map[string]string{middleware.APIKeyHeader: cfg.AppAPIKey})
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 with key, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestActivationRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.ActivateRequests = 2
	srv := build(t, cfg)

	headers := map[string]string{middleware.APIKeyHeader: cfg.AppAPIKey}
	body := `{"licenseKey":"LPRIME-MENSA-00000-0000-0000","hardwareId":"HW"}`
	for i := 0; i < 2; i++ {
		if rec := serve(srv, http.MethodPost, "/api/licenses/activate", body, headers); rec.Code != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected status 400, got %d", i+1, rec.Code)
		}
	}
	if rec := serve(srv, http.MethodPost, "/api/licenses/activate", body, headers); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}

	// validate is only under the wider API limit
	if rec := serve(srv, http.MethodPost, "/api/licenses/validate", body, headers); rec.Code != http.StatusOK {
		t.Errorf("expected validate to pass, got %d", rec.Code)
	}
}

func TestAdminAPIAndMetrics(t *testing.T) {
	srv := build(t, testConfig(t))

	accounts := account.NewService(srv.DB)
	if _, err := accounts.Create(context.Background(), account.CreateInput{Username: "root", Password: "rootpass"}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if rec := serve(srv, http.MethodGet, "/api/admin/plans", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", rec.Code)
	}

	rec := serve(srv, http.MethodPost, "/api/admin/login", `{"username":"root","password":"rootpass"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected status 200, got %d %s", rec.Code, rec.Body.String())
	}
	var login map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	auth := map[string]string{echo.HeaderAuthorization: "Bearer " + login["token"].(string)}

	if rec := serve(srv, http.MethodGet, "/api/admin/plans", "", auth); rec.Code != http.StatusOK {
		t.Errorf("expected status 200 with token, got %d", rec.Code)
	}

	rec = serve(srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `licserver_http_request_duration_seconds_count{method="GET",route="/api/admin/plans",status="200"}`) {
		t.Errorf("expected request histogram for plans route in:\n%s", rec.Body.String())
	}
}

func TestDemoModeSeedsNewDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DemoMode = true
	srv := build(t, cfg)

	var n int
	if err := srv.DB.Get(&n, `SELECT COUNT(*) FROM license`); err != nil {
		t.Fatalf("count licenses: %v", err)
	}
	if n == 0 {
		t.Error("expected demo licenses in a new database")
	}
	srv.DB.Close()

	// a second start against the same file must not load again
	again := build(t, cfg)
	var m int
	if err := again.DB.Get(&m, `SELECT COUNT(*) FROM license`); err != nil {
		t.Fatalf("count licenses: %v", err)
	}
	if m != n {
		t.Errorf("expected %d licenses after restart, got %d", n, m)
	}
}
