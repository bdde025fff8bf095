package admin

import (
	"context"
	"errors"
	"fmt"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/auditlog"
	"lprime.com/licserver/internal/auth"
	"lprime.com/licserver/internal/backup"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/plan"
	"lprime.com/licserver/internal/stats"
)

// Service adapts request DTOs to the domain services behind the admin API.
type Service struct {
	licenses *license.Service
	plans    *plan.Service
	stats    *stats.Service
	accounts *account.Service
	tokens   *auth.TokenService
	backups  *backup.Service
}

func NewService(
	lic *license.Service,
	p *plan.Service,
	st *stats.Service,
	a *account.Service,
	t *auth.TokenService,
	b *backup.Service,
) *Service {
	return &Service{
		licenses: lic,
		plans:    p,
		stats:    st,
		accounts: a,
		tokens:   t,
		backups:  b,
	}
}

// -------------------------
// Session
// -------------------------

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	a, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(a.AdminID, a.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResponse{Token: token, ExpiresAt: exp, Admin: a}, nil
}

func (s *Service) ChangePassword(ctx context.Context, adminID string, req *ChangePasswordRequest) error {
	return s.accounts.ChangePassword(ctx, adminID, req.CurrentPassword, req.NewPassword)
}

// -------------------------
// Dashboard
// -------------------------

func (s *Service) GetStats(ctx context.Context) (*stats.Stats, error) {
	return s.stats.Get(ctx)
}

// -------------------------
// Licenses
// -------------------------

func (s *Service) GetLicenses(ctx context.Context, f license.Filter) ([]license.License, error) {
	return s.licenses.List(ctx, f)
}

// GetLicense returns the license with its newest log entries.
func (s *Service) GetLicense(ctx context.Context, id string) (*LicenseDetailResponse, error) {
	lic, err := s.licenses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.licenses.Logs(ctx, id, auditlog.DefaultLimit)
	if err != nil {
		return nil, err
	}
	return &LicenseDetailResponse{License: lic, Logs: logs}, nil
}

func (s *Service) CreateLicense(ctx context.Context, req *CreateLicenseRequest) (*license.License, error) {
	return s.licenses.Create(ctx, license.CreateInput{
		PlanID:        req.PlanID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
}

func (s *Service) UpdateLicense(ctx context.Context, id string, req *UpdateLicenseRequest) (*license.License, error) {
	return s.licenses.Update(ctx, id, license.UpdateInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
}

func (s *Service) DeleteLicense(ctx context.Context, id string) error {
	return s.licenses.Delete(ctx, id)
}

func (s *Service) BlockLicense(ctx context.Context, id, adminID string, req *BlockRequest) (*license.License, error) {
	return s.licenses.Block(ctx, id, req.Reason, adminID)
}

func (s *Service) UnblockLicense(ctx context.Context, id, adminID string) (*license.License, error) {
	return s.licenses.Unblock(ctx, id, adminID)
}

func (s *Service) ResetHardware(ctx context.Context, id, adminID string) (*license.License, error) {
	return s.licenses.ResetHardware(ctx, id, adminID)
}

// -------------------------
// Plans
// -------------------------

func (s *Service) GetPlans(ctx context.Context) ([]plan.Plan, error) {
	return s.plans.GetAll(ctx)
}

// -------------------------
// Backup
// -------------------------

func (s *Service) Backup(ctx context.Context) (*backup.BackupResult, error) {
	if s.backups == nil {
		return nil, errBackupUnavailable
	}
	return s.backups.CreateBackup(ctx)
}

var errBackupUnavailable = errors.New("backups are not configured")
