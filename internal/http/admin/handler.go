package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/metrics"
	"lprime.com/licserver/internal/middleware"
)

type Handler struct {
	svc     *Service
	metrics *metrics.Registry
}

func NewHandler(svc *Service, m *metrics.Registry) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// Session

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.Login(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	log.Info().Str("admin_id", out.Admin.AdminID).Str("ip", c.RealIP()).Msg("admin logged in")
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	admin := middleware.CurrentAdmin(c)
	if err := h.svc.ChangePassword(c.Request().Context(), admin.AdminID, &req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "password changed"})
}

func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, AdminResponse{Admin: middleware.CurrentAdmin(c)})
}

// Dashboard

func (h *Handler) GetStats(c echo.Context) error {
	out, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Licenses

func (h *Handler) GetLicenses(c echo.Context) error {
	var f license.Filter
	err := echo.QueryParamsBinder(c).
		String("status", &f.Status).
		String("search", &f.Search).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset).
		BindError()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit and offset must be integers"})
	}

	out, err := h.svc.GetLicenses(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, LicenseListResponse{Licenses: out})
}

func (h *Handler) GetLicense(c echo.Context) error {
	out, err := h.svc.GetLicense(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateLicense(c echo.Context) error {
	var req CreateLicenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.CreateLicense(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "create", out.LicenseID)
	return c.JSON(http.StatusCreated, LicenseResponse{License: out})
}

func (h *Handler) UpdateLicense(c echo.Context) error {
	var req UpdateLicenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.UpdateLicense(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "update", out.LicenseID)
	return c.JSON(http.StatusOK, LicenseResponse{License: out})
}

func (h *Handler) DeleteLicense(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.DeleteLicense(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	h.record(c, "delete", id)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) BlockLicense(c echo.Context) error {
	var req BlockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.BlockLicense(c.Request().Context(), c.Param("id"), middleware.CurrentAdmin(c).AdminID, &req)
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "block", out.LicenseID)
	return c.JSON(http.StatusOK, LicenseActionResponse{License: out, Message: "license blocked"})
}

func (h *Handler) UnblockLicense(c echo.Context) error {
	out, err := h.svc.UnblockLicense(c.Request().Context(), c.Param("id"), middleware.CurrentAdmin(c).AdminID)
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "unblock", out.LicenseID)
	return c.JSON(http.StatusOK, LicenseActionResponse{License: out, Message: "license unblocked"})
}

func (h *Handler) ResetHardware(c echo.Context) error {
	out, err := h.svc.ResetHardware(c.Request().Context(), c.Param("id"), middleware.CurrentAdmin(c).AdminID)
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "reset_hardware", out.LicenseID)
	return c.JSON(http.StatusOK, LicenseActionResponse{
		License: out,
		Message: "hardware reset, the license can be activated on a new machine",
	})
}

// Plans

func (h *Handler) GetPlans(c echo.Context) error {
	out, err := h.svc.GetPlans(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, PlanListResponse{Plans: out})
}

// Backup

func (h *Handler) BackupDatabase(c echo.Context) error {
	out, err := h.svc.Backup(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	h.record(c, "backup", out.Filename)
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) record(c echo.Context, action, target string) {
	h.metrics.RecordAdminAction(action)
	ev := log.Info().Str("action", action).Str("target", target)
	if a := middleware.CurrentAdmin(c); a != nil {
		ev = ev.Str("admin_id", a.AdminID)
	}
	ev.Msg("admin action")
}

// bindAndValidate returns a 400 HTTPError describing the first problem with
// the request body.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// respondError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, license.ErrNotFound), errors.Is(err, account.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrWrongPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, account.ErrPasswordTooShort), license.IsClientError(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.Path()).Msg("admin request failed")
		return c.JSON(status, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: license.Code(err)})
}
