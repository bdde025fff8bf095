package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"lprime.com/licserver/internal/http/client"
	"lprime.com/licserver/internal/keycodec"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/metrics"
	"lprime.com/licserver/internal/middleware"
	"lprime.com/licserver/internal/testutil"
)

var t0 = time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)

type env struct {
	e       *echo.Echo
	svc     *license.Service
	metrics *metrics.Registry
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewTestDB(t)

	env := &env{e: echo.New(), metrics: metrics.NewRegistry(), now: t0}
	env.svc = license.NewService(db, keycodec.New("client-test-secret"),
		license.WithClock(func() time.Time { return env.now }))

	env.e.Validator = middleware.NewValidator()
	noLimit := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	client.RegisterRoutes(env.e.Group("/api/licenses"), client.NewHandler(env.svc, env.metrics), noLimit)
	return env
}

func (env *env) post(t *testing.T, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/licenses"+path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRealIP, "198.51.100.20")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func (env *env) create(t *testing.T, planID string) *license.License {
	t.Helper()
	lic, err := env.svc.Create(context.Background(), license.CreateInput{PlanID: planID, CustomerName: "Maria"})
	if err != nil {
		t.Fatalf("create license: %v", err)
	}
	return lic
}

func body(key, hw, machine string) string {
	b, _ := json.Marshal(map[string]string{"licenseKey": key, "hardwareId": hw, "machineName": machine})
	return string(b)
}

func TestActivate(t *testing.T) {
	env := newEnv(t)
	lic := env.create(t, "mensal")

	t.Run("binds a pending license", func(t *testing.T) {
		code, resp := env.post(t, "/activate", body(lic.LicenseKey, "HW-1", "PC-1"))
		if code != http.StatusOK {
			t.Fatalf("expected status 200, got %d (%v)", code, resp)
		}
		if resp["success"] != true {
			t.Errorf("expected success true, got %v", resp["success"])
		}
		view := resp["license"].(map[string]any)
		if view["key"] != lic.LicenseKey {
			t.Errorf("expected key %q, got %v", lic.LicenseKey, view["key"])
		}
		if view["status"] != "active" || view["planId"] != "mensal" || view["plan"] != "Mensal" {
			t.Errorf("unexpected license view %v", view)
		}
		if view["customerName"] != "Maria" {
			t.Errorf("expected customerName Maria, got %v", view["customerName"])
		}
		want := t0.Add(30 * 24 * time.Hour).Format(time.RFC3339)
		if view["expiresAt"] != want {
			t.Errorf("expected expiresAt %s, got %v", want, view["expiresAt"])
		}
		if _, ok := view["daysRemaining"]; ok {
			t.Error("activation response should not carry daysRemaining")
		}
	})

	t.Run("same hardware re-activates", func(t *testing.T) {
		code, resp := env.post(t, "/activate", body(lic.LicenseKey, "HW-1", "PC-1"))
		if code != http.StatusOK || resp["success"] != true {
			t.Errorf("expected success, got %d %v", code, resp)
		}
	})

	t.Run("other hardware reports bound machine", func(t *testing.T) {
		code, resp := env.post(t, "/activate", body(lic.LicenseKey, "HW-2", "PC-2"))
		if code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", code)
		}
		if resp["success"] != false || resp["code"] != license.CodeAlreadyActivated {
			t.Errorf("unexpected response %v", resp)
		}
		if resp["activatedMachine"] != "PC-1" {
			t.Errorf("expected activatedMachine PC-1, got %v", resp["activatedMachine"])
		}
	})

	t.Run("malformed key", func(t *testing.T) {
		code, resp := env.post(t, "/activate", body("LPRIME-XXXXX-00000-0000-0000", "HW-1", ""))
		if code != http.StatusBadRequest || resp["code"] != license.CodeInvalidKey {
			t.Errorf("expected 400 INVALID_KEY, got %d %v", code, resp)
		}
	})

	t.Run("blocked license carries reason", func(t *testing.T) {
		blocked := env.create(t, "anual")
		if _, err := env.svc.Block(context.Background(), blocked.LicenseID, "chargeback", "admin-1"); err != nil {
			t.Fatalf("block: %v", err)
		}
		code, resp := env.post(t, "/activate", body(blocked.LicenseKey, "HW-9", ""))
		if code != http.StatusBadRequest || resp["code"] != license.CodeBlocked {
			t.Fatalf("expected 400 BLOCKED, got %d %v", code, resp)
		}
		if !strings.Contains(resp["error"].(string), "chargeback") {
			t.Errorf("expected reason in error, got %v", resp["error"])
		}
	})

	t.Run("missing hardware id has no code", func(t *testing.T) {
		code, resp := env.post(t, "/activate", `{"licenseKey":"`+lic.LicenseKey+`"}`)
		if code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", code)
		}
		if resp["error"] != "hardwareId is required" {
			t.Errorf("expected error %q, got %v", "hardwareId is required", resp["error"])
		}
		if _, ok := resp["code"]; ok {
			t.Errorf("expected no code, got %v", resp["code"])
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		code, resp := env.post(t, "/activate", `{"licenseKey":`)
		if code != http.StatusBadRequest || resp["error"] != "invalid request body" {
			t.Errorf("expected 400 invalid request body, got %d %v", code, resp)
		}
	})

	t.Run("outcomes are counted", func(t *testing.T) {
		if got := promtest.ToFloat64(env.metrics.ActivationsTotal.WithLabelValues("success")); got != 2 {
			t.Errorf("expected 2 successful activations, got %v", got)
		}
		if got := promtest.ToFloat64(env.metrics.ActivationsTotal.WithLabelValues(license.CodeAlreadyActivated)); got != 1 {
			t.Errorf("expected 1 conflicting activation, got %v", got)
		}
	})
}

func TestValidate(t *testing.T) {
	env := newEnv(t)
	lic := env.create(t, "mensal")
	if code, resp := env.post(t, "/activate", body(lic.LicenseKey, "HW-1", "PC-1")); code != http.StatusOK {
		t.Fatalf("activate: %d %v", code, resp)
	}

	t.Run("reports days remaining", func(t *testing.T) {
		env.now = t0.Add(10 * 24 * time.Hour)
		code, resp := env.post(t, "/validate", body(lic.LicenseKey, "HW-1", ""))
		if code != http.StatusOK || resp["valid"] != true {
			t.Fatalf("expected valid, got %d %v", code, resp)
		}
		view := resp["license"].(map[string]any)
		if view["daysRemaining"] != float64(20) {
			t.Errorf("expected daysRemaining 20, got %v", view["daysRemaining"])
		}
		if view["activatedAt"] != t0.Format(time.RFC3339) {
			t.Errorf("expected activatedAt %s, got %v", t0.Format(time.RFC3339), view["activatedAt"])
		}
	})

	t.Run("wrong hardware is 200 with code", func(t *testing.T) {
		code, resp := env.post(t, "/validate", body(lic.LicenseKey, "HW-2", ""))
		if code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", code)
		}
		if resp["valid"] != false || resp["code"] != license.CodeWrongHardware {
			t.Errorf("unexpected response %v", resp)
		}
	})

	t.Run("malformed key is not found", func(t *testing.T) {
		code, resp := env.post(t, "/validate", body("garbage", "HW-1", ""))
		if code != http.StatusOK || resp["code"] != license.CodeNotFound {
			t.Errorf("expected 200 NOT_FOUND, got %d %v", code, resp)
		}
	})

	t.Run("expired", func(t *testing.T) {
		env.now = t0.Add(31 * 24 * time.Hour)
		code, resp := env.post(t, "/validate", body(lic.LicenseKey, "HW-1", ""))
		if code != http.StatusOK || resp["code"] != license.CodeExpired {
			t.Errorf("expected 200 EXPIRED, got %d %v", code, resp)
		}
	})

	t.Run("missing key is 400", func(t *testing.T) {
		code, resp := env.post(t, "/validate", `{"hardwareId":"HW-1"}`)
		if code != http.StatusBadRequest || resp["valid"] != false {
			t.Errorf("expected 400 invalid, got %d %v", code, resp)
		}
	})

	if got := promtest.ToFloat64(env.metrics.ValidationsTotal.WithLabelValues(license.CodeExpired)); got != 1 {
		t.Errorf("expected 1 expired validation, got %v", got)
	}
}

func TestCheck(t *testing.T) {
	env := newEnv(t)
	lic := env.create(t, "trimestral")

	t.Run("pending license is valid and unbound", func(t *testing.T) {
		code, resp := env.post(t, "/check", `{"licenseKey":"`+lic.LicenseKey+`"}`)
		if code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", code)
		}
		if resp["valid"] != true || resp["status"] != "pending" || resp["isActivated"] != false {
			t.Errorf("unexpected response %v", resp)
		}
		if resp["plan"] != "Trimestral" {
			t.Errorf("expected plan Trimestral, got %v", resp["plan"])
		}
		if resp["expiresAt"] != nil {
			t.Errorf("expected null expiresAt, got %v", resp["expiresAt"])
		}
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		code, resp := env.post(t, "/check", `{"licenseKey":"  `+lic.LicenseKey+` "}`)
		if code != http.StatusOK || resp["valid"] != true {
			t.Errorf("expected valid, got %d %v", code, resp)
		}
	})

	t.Run("key case matters", func(t *testing.T) {
		code, resp := env.post(t, "/check", `{"licenseKey":"`+strings.ToLower(lic.LicenseKey)+`"}`)
		if code != http.StatusOK || resp["code"] != license.CodeInvalidKey {
			t.Errorf("expected invalid key, got %d %v", code, resp)
		}
	})

	t.Run("malformed key", func(t *testing.T) {
		code, resp := env.post(t, "/check", `{"licenseKey":"nope"}`)
		if code != http.StatusOK || resp["valid"] != false || resp["code"] != license.CodeInvalidKey {
			t.Errorf("expected invalid key, got %d %v", code, resp)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		code, _ := env.post(t, "/check", `{}`)
		if code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", code)
		}
	})
}
