package client

import (
	"time"

	"lprime.com/licserver/internal/license"
)

type ActivateRequest struct {
	LicenseKey  string `json:"licenseKey" validate:"required"`
	HardwareID  string `json:"hardwareId" validate:"required"`
	MachineName string `json:"machineName"`
}

type ValidateRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
	HardwareID string `json:"hardwareId" validate:"required"`
}

type CheckRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

// LicenseView is the license summary returned to the installed application.
type LicenseView struct {
	Key           string         `json:"key"`
	Plan          string         `json:"plan"`
	PlanID        string         `json:"planId"`
	Status        license.Status `json:"status"`
	CustomerName  *string        `json:"customerName"`
	ActivatedAt   *time.Time     `json:"activatedAt"`
	ExpiresAt     *time.Time     `json:"expiresAt"`
	DaysRemaining *int           `json:"daysRemaining,omitempty"`
}

type ActivateResponse struct {
	Success          bool         `json:"success"`
	License          *LicenseView `json:"license,omitempty"`
	Error            string       `json:"error,omitempty"`
	Code             string       `json:"code,omitempty"`
	ActivatedMachine *string      `json:"activatedMachine,omitempty"`
}

type ValidateResponse struct {
	Valid   bool         `json:"valid"`
	License *LicenseView `json:"license,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
}

// CheckFailure is returned by /check when the key is malformed or unknown.
type CheckFailure struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newLicenseView(l *license.License) *LicenseView {
	return &LicenseView{
		Key:          l.LicenseKey,
		Plan:         l.PlanName,
		PlanID:       l.PlanID,
		Status:       l.Status,
		CustomerName: l.CustomerName,
		ActivatedAt:  l.ActivatedAt,
		ExpiresAt:    l.ExpiresAt,
	}
}
