package admin

import (
	"time"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/auditlog"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/plan"
)

// -------------------------
// Session DTOs
// -------------------------

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Admin     *account.Account `json:"admin"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type AdminResponse struct {
	Admin *account.Account `json:"admin"`
}

// -------------------------
// License DTOs
// -------------------------

type CreateLicenseRequest struct {
	PlanID        string `json:"planId" validate:"required"`
	CustomerName  string `json:"customerName" validate:"max=200"`
	CustomerEmail string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone string `json:"customerPhone" validate:"max=50"`
	Notes         string `json:"notes"`
}

// UpdateLicenseRequest changes only the fields present in the body.
type UpdateLicenseRequest struct {
	CustomerName  *string `json:"customerName" validate:"omitempty,max=200"`
	CustomerEmail *string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone *string `json:"customerPhone" validate:"omitempty,max=50"`
	Notes         *string `json:"notes"`
}

type BlockRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type LicenseResponse struct {
	License *license.License `json:"license"`
}

type LicenseActionResponse struct {
	License *license.License `json:"license"`
	Message string           `json:"message"`
}

type LicenseDetailResponse struct {
	License *license.License `json:"license"`
	Logs    []auditlog.Entry `json:"logs"`
}

type LicenseListResponse struct {
	Licenses []license.License `json:"licenses"`
}

type PlanListResponse struct {
	Plans []plan.Plan `json:"plans"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
