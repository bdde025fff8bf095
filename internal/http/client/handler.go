package client

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/metrics"
)

const internalError = "internal server error"

type Handler struct {
	LicenseService *license.Service
	Metrics        *metrics.Registry
}

func NewHandler(l *license.Service, m *metrics.Registry) *Handler {
	return &Handler{
		LicenseService: l,
		Metrics:        m,
	}
}

// POST /activate
func (h *Handler) Activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ActivateResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ActivateResponse{Error: err.Error()})
	}

	res, err := h.LicenseService.Activate(c.Request().Context(), license.ActivateInput{
		LicenseKey:  req.LicenseKey,
		HardwareID:  req.HardwareID,
		MachineName: req.MachineName,
		SourceIP:    c.RealIP(),
	})
	h.Metrics.RecordActivation(resultCode(err))
	if err != nil {
		if !license.IsClientError(err) {
			log.Error().Err(err).Msg("activate license")
			return c.JSON(http.StatusInternalServerError, ActivateResponse{Error: internalError})
		}
		resp := ActivateResponse{Error: err.Error(), Code: license.Code(err)}
		var already *license.AlreadyActivatedError
		if errors.As(err, &already) {
			resp.ActivatedMachine = &already.MachineName
		}
		return c.JSON(http.StatusBadRequest, resp)
	}

	log.Info().
		Str("license_id", res.License.LicenseID).
		Bool("first", res.FirstActivation).
		Str("ip", c.RealIP()).
		Msg("license activated")

	return c.JSON(http.StatusOK, ActivateResponse{
		Success: true,
		License: newLicenseView(res.License),
	})
}

// POST /validate
func (h *Handler) Validate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ValidateResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ValidateResponse{Error: err.Error()})
	}

	res, err := h.LicenseService.Validate(c.Request().Context(), license.ValidateInput{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
		SourceIP:   c.RealIP(),
	})
	h.Metrics.RecordValidation(resultCode(err))
	if err != nil {
		if !license.IsClientError(err) {
			log.Error().Err(err).Msg("validate license")
			return c.JSON(http.StatusInternalServerError, ValidateResponse{Error: internalError})
		}
		return c.JSON(http.StatusOK, ValidateResponse{Error: err.Error(), Code: license.Code(err)})
	}

	view := newLicenseView(res.License)
	view.DaysRemaining = &res.DaysRemaining
	return c.JSON(http.StatusOK, ValidateResponse{Valid: true, License: view})
}

// POST /check
func (h *Handler) Check(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res, err := h.LicenseService.Check(c.Request().Context(), req.LicenseKey)
	if err != nil {
		if !license.IsClientError(err) {
			log.Error().Err(err).Msg("check license")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": internalError})
		}
		return c.JSON(http.StatusOK, CheckFailure{Error: err.Error(), Code: license.Code(err)})
	}
	return c.JSON(http.StatusOK, res)
}

// resultCode labels an outcome for metrics. Internal failures get their own
// label so they are not counted as successes.
func resultCode(err error) string {
	if err == nil {
		return ""
	}
	if code := license.Code(err); code != "" {
		return code
	}
	return "INTERNAL"
}
