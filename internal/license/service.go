package license

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"lprime.com/licserver/internal/auditlog"
	"lprime.com/licserver/internal/keycodec"
	"lprime.com/licserver/internal/plan"
	"lprime.com/licserver/internal/sqlite"
)

// maxKeyAttempts bounds key regeneration after a uniqueness conflict.
const maxKeyAttempts = 5

// Service is the license lifecycle engine. Every state change and its audit
// entry are written in one transaction.
type Service struct {
	repo    Repository
	audit   auditlog.Repository
	plans   plan.Repository
	db      *sqlx.DB
	codec   *keycodec.Codec
	now     func() time.Time
	timeout time.Duration
}

type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeout bounds every operation. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(db *sqlx.DB, codec *keycodec.Codec, opts ...Option) *Service {
	s := &Service{
		db:    db,
		repo:  New(db),
		audit: auditlog.New(db),
		plans: plan.New(db),
		codec: codec,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create issues a pending license for an existing plan.
func (s *Service) Create(ctx context.Context, in CreateInput) (*License, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.plans.Get(ctx, in.PlanID); err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	now := s.clock()
	lic := &License{
		LicenseID:      uuid.NewString(),
		PlanID:         in.PlanID,
		Status:         StatusPending,
		CustomerName:   nullString(strings.TrimSpace(in.CustomerName)),
		CustomerEmail:  nullString(strings.TrimSpace(in.CustomerEmail)),
		CustomerPhone:  nullString(strings.TrimSpace(in.CustomerPhone)),
		Notes:          nullString(in.Notes),
		MaxActivations: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		key, err := s.codec.Generate(in.PlanID)
		if err != nil {
			return nil, fmt.Errorf("generate license key: %w", err)
		}
		lic.LicenseKey = key

		err = s.WithTx(ctx, func(tx *sqlx.Tx) error {
			return s.repo.Create(ctx, tx, lic)
		})
		if err == nil {
			break
		}
		if sqlite.IsForeignKeyError(err) {
			return nil, ErrPlanNotFound
		}
		if !sqlite.IsUniqueConstraintError(err) || attempt == maxKeyAttempts {
			return nil, err
		}
		log.Warn().Int("attempt", attempt).Str("plan", in.PlanID).Msg("license key collision, regenerating")
	}

	return s.repo.Get(ctx, lic.LicenseID)
}

// Activate binds a license to a hardware fingerprint. The first activation
// starts the expiry clock; re-activation on the same hardware keeps it.
func (s *Service) Activate(ctx context.Context, in ActivateInput) (*ActivateResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key := s.codec.Normalize(in.LicenseKey)
	if !s.codec.Verify(key) {
		return nil, ErrInvalidKey
	}

	now := s.clock()
	var res *ActivateResult
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		lic, err := s.repo.GetByKeyTx(ctx, tx, key)
		if err != nil {
			return err
		}

		if lic.Status == StatusBlocked {
			return &BlockedError{Reason: deref(lic.BlockedReason)}
		}
		if lic.HardwareID != nil && *lic.HardwareID != in.HardwareID {
			return &AlreadyActivatedError{MachineName: deref(lic.MachineName)}
		}
		if lic.IsExpiredAt(now) {
			return ErrExpired
		}

		first := lic.ExpiresAt == nil
		expiresAt := now.Add(time.Duration(lic.DurationDays) * 24 * time.Hour)
		if !first {
			expiresAt = *lic.ExpiresAt
		}

		ok, err := s.repo.Activate(ctx, tx, lic.LicenseID, activation{
			HardwareID:  in.HardwareID,
			MachineName: nullString(in.MachineName),
			ExpiresAt:   expiresAt,
			SourceIP:    nullString(in.SourceIP),
			At:          now,
		})
		if err != nil {
			return err
		}
		if !ok {
			cur, err := s.repo.GetTx(ctx, tx, lic.LicenseID)
			if err != nil {
				return err
			}
			return &AlreadyActivatedError{MachineName: deref(cur.MachineName)}
		}

		err = s.audit.Append(ctx, tx, &auditlog.Entry{
			LicenseID: lic.LicenseID,
			Action:    auditlog.ActionActivated,
			Details: auditlog.Details{
				"machineName": in.MachineName,
				"ipAddress":   in.SourceIP,
			},
			IPAddress:  nullString(in.SourceIP),
			HardwareID: nullString(in.HardwareID),
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		updated, err := s.repo.GetTx(ctx, tx, lic.LicenseID)
		if err != nil {
			return err
		}
		res = &ActivateResult{License: updated, FirstActivation: first}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Validate is the periodic check made by an installed application. Blocked,
// wrong-hardware and expiry outcomes are logged and committed before the
// failure is returned.
func (s *Service) Validate(ctx context.Context, in ValidateInput) (*ValidateResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key := s.codec.Normalize(in.LicenseKey)
	if !s.codec.Verify(key) {
		return nil, ErrNotFound
	}

	now := s.clock()
	var (
		res     *ValidateResult
		outcome error
	)
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		lic, err := s.repo.GetByKeyTx(ctx, tx, key)
		if err != nil {
			return err
		}

		entry := &auditlog.Entry{
			LicenseID:  lic.LicenseID,
			IPAddress:  nullString(in.SourceIP),
			HardwareID: nullString(in.HardwareID),
			CreatedAt:  now,
		}

		switch {
		case lic.Status == StatusBlocked:
			outcome = &BlockedError{Reason: deref(lic.BlockedReason)}
			entry.Action = auditlog.ActionValidationBlocked
			entry.Details = auditlog.Details{"reason": deref(lic.BlockedReason)}
			return s.audit.Append(ctx, tx, entry)

		case lic.HardwareID != nil && *lic.HardwareID != in.HardwareID:
			outcome = &WrongHardwareError{Expected: *lic.HardwareID, Received: in.HardwareID}
			entry.Action = auditlog.ActionValidationWrongHardware
			entry.Details = auditlog.Details{"expectedHw": *lic.HardwareID, "receivedHw": in.HardwareID}
			return s.audit.Append(ctx, tx, entry)

		case lic.IsExpiredAt(now):
			if err := s.repo.MarkExpired(ctx, tx, lic.LicenseID, now); err != nil {
				return err
			}
			outcome = ErrExpired
			entry.Action = auditlog.ActionExpired
			entry.Details = auditlog.Details{}
			return s.audit.Append(ctx, tx, entry)
		}

		if err := s.repo.MarkValidated(ctx, tx, lic.LicenseID, now, nullString(in.SourceIP)); err != nil {
			return err
		}
		lic.LastValidationAt = &now
		lic.LastValidationIP = nullString(in.SourceIP)
		lic.UpdatedAt = now

		res = &ValidateResult{License: lic, DaysRemaining: lic.DaysRemaining(now)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return res, nil
}

// Block is accepted in any status; blocking again refreshes the reason and timestamp.
func (s *Service) Block(ctx context.Context, id, reason, adminID string) (*License, error) {
	return s.adminTransition(ctx, id, auditlog.ActionBlocked,
		auditlog.Details{"reason": reason, "adminId": adminID},
		func(tx *sqlx.Tx, now time.Time) error {
			return s.repo.Block(ctx, tx, id, reason, now)
		})
}

// Unblock always returns the license to active.
func (s *Service) Unblock(ctx context.Context, id, adminID string) (*License, error) {
	return s.adminTransition(ctx, id, auditlog.ActionUnblocked,
		auditlog.Details{"adminId": adminID},
		func(tx *sqlx.Tx, now time.Time) error {
			return s.repo.Unblock(ctx, tx, id, now)
		})
}

// ResetHardware clears the binding so the license can be activated on another
// machine. Status, expiry and the activation counter are left unchanged.
func (s *Service) ResetHardware(ctx context.Context, id, adminID string) (*License, error) {
	return s.adminTransition(ctx, id, auditlog.ActionHardwareReset,
		auditlog.Details{"adminId": adminID},
		func(tx *sqlx.Tx, now time.Time) error {
			return s.repo.ResetHardware(ctx, tx, id, now)
		})
}

func (s *Service) adminTransition(ctx context.Context, id string, action auditlog.Action, details auditlog.Details, apply func(*sqlx.Tx, time.Time) error) (*License, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	now := s.clock()
	var out *License
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := apply(tx, now); err != nil {
			return err
		}
		err := s.audit.Append(ctx, tx, &auditlog.Entry{
			LicenseID: id,
			Action:    action,
			Details:   details,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		out, err = s.repo.GetTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the provided customer fields. It is not a licensing event and
// writes no audit entry.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*License, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var out *License
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		lic, err := s.repo.GetTx(ctx, tx, id)
		if err != nil {
			return err
		}
		// An empty value clears the field, stored as NULL like Create does.
		if in.CustomerName != nil {
			lic.CustomerName = nullString(strings.TrimSpace(*in.CustomerName))
		}
		if in.CustomerEmail != nil {
			lic.CustomerEmail = nullString(strings.TrimSpace(*in.CustomerEmail))
		}
		if in.CustomerPhone != nil {
			lic.CustomerPhone = nullString(strings.TrimSpace(*in.CustomerPhone))
		}
		if in.Notes != nil {
			lic.Notes = nullString(*in.Notes)
		}
		lic.UpdatedAt = s.clock()

		if err := s.repo.Update(ctx, tx, lic); err != nil {
			return err
		}
		out, err = s.repo.GetTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the license; its log entries go with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.Delete(ctx, tx, id)
	})
}

// List returns licenses newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]License, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if f.Status != "" {
		st, err := ParseStatus(f.Status)
		if err != nil {
			return nil, err
		}
		f.Status = string(st)
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*License, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.repo.Get(ctx, id)
}

// Logs returns the newest audit entries for a license.
func (s *Service) Logs(ctx context.Context, id string, limit int) ([]auditlog.Entry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.audit.ListForLicense(ctx, id, limit)
}

// Check reports a key's status without touching its hardware binding.
func (s *Service) Check(ctx context.Context, key string) (*CheckResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	key = s.codec.Normalize(key)
	if !s.codec.Verify(key) {
		return nil, ErrInvalidKey
	}

	lic, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Valid:       lic.Status == StatusActive || lic.Status == StatusPending,
		Status:      lic.Status,
		Plan:        lic.PlanName,
		ExpiresAt:   lic.ExpiresAt,
		IsActivated: lic.IsActivated(),
	}, nil
}
