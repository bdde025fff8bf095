package license

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Status is the lifecycle state of a license.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusExpired Status = "expired"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusActive, StatusPending, StatusBlocked, StatusExpired}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusBlocked, StatusExpired:
		return true
	}
	return false
}

// ParseStatus returns the status named by s. The empty string is rejected.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// NoExpiryDays is reported as days remaining for a license without an expiry.
const NoExpiryDays = 999999

type License struct {
	LicenseID        string     `db:"license_id" json:"id"`
	LicenseKey       string     `db:"license_key" json:"license_key"`
	PlanID           string     `db:"plan_id" json:"plan_id"`
	Status           Status     `db:"status" json:"status"`
	HardwareID       *string    `db:"hardware_id" json:"hardware_id"`
	MachineName      *string    `db:"machine_name" json:"machine_name"`
	CustomerName     *string    `db:"customer_name" json:"customer_name"`
	CustomerEmail    *string    `db:"customer_email" json:"customer_email"`
	CustomerPhone    *string    `db:"customer_phone" json:"customer_phone"`
	Notes            *string    `db:"notes" json:"notes"`
	ActivatedAt      *time.Time `db:"activated_at" json:"activated_at"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at"`
	BlockedAt        *time.Time `db:"blocked_at" json:"blocked_at"`
	BlockedReason    *string    `db:"blocked_reason" json:"blocked_reason"`
	LastValidationAt *time.Time `db:"last_validation_at" json:"last_validation_at"`
	LastValidationIP *string    `db:"last_validation_ip" json:"last_validation_ip"`
	ActivationCount  int        `db:"activation_count" json:"activation_count"`
	MaxActivations   int        `db:"max_activations" json:"max_activations"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`

	// joined from plan
	PlanName     string  `db:"plan_name" json:"plan_name"`
	PlanPrice    float64 `db:"plan_price" json:"plan_price"`
	DurationDays int     `db:"duration_days" json:"duration_days"`
}

// IsActivated reports whether a hardware fingerprint is bound.
func (l *License) IsActivated() bool {
	return l.HardwareID != nil
}

// IsExpiredAt reports whether the license has an expiry strictly before now.
func (l *License) IsExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// DaysRemaining rounds the time left up to whole days, or returns
// NoExpiryDays when the license has no expiry.
func (l *License) DaysRemaining(now time.Time) int {
	if l.ExpiresAt == nil {
		return NoExpiryDays
	}
	d := l.ExpiresAt.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// searchText is the case-folded haystack used by List's free-text search.
func (l *License) searchText() string {
	return foldSearch(strings.Join([]string{l.LicenseKey, deref(l.CustomerName), deref(l.CustomerEmail)}, "\n"))
}

func foldSearch(s string) string {
	return cases.Fold().String(s)
}

// CreateInput carries the customer fields of a new license. Empty strings are
// stored as NULL.
type CreateInput struct {
	PlanID        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
}

// UpdateInput applies only the non-nil fields. A pointer to an empty string
// clears the field.
type UpdateInput struct {
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	Notes         *string
}

type ActivateInput struct {
	LicenseKey  string
	HardwareID  string
	MachineName string
	SourceIP    string
}

type ActivateResult struct {
	License *License
	// FirstActivation is true when this call started the expiry clock.
	FirstActivation bool
}

type ValidateInput struct {
	LicenseKey string
	HardwareID string
	SourceIP   string
}

type ValidateResult struct {
	License       *License
	DaysRemaining int
}

// CheckResult is the hardware-independent status of a key.
type CheckResult struct {
	Valid       bool       `json:"valid"`
	Status      Status     `json:"status"`
	Plan        string     `json:"plan"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	IsActivated bool       `json:"isActivated"`
}

// DefaultListLimit applies when Filter.Limit is not positive.
const DefaultListLimit = 100

// Filter narrows List. Status and Search are optional.
type Filter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
