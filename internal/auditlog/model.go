package auditlog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Action tags a lifecycle event.
type Action string

const (
	ActionActivated               Action = "activated"
	ActionValidationBlocked       Action = "validation_blocked"
	ActionValidationWrongHardware Action = "validation_wrong_hardware"
	ActionExpired                 Action = "expired"
	ActionBlocked                 Action = "blocked"
	ActionUnblocked               Action = "unblocked"
	ActionHardwareReset           Action = "hardware_reset"
)

// Details is the structured payload of an entry, stored as JSON text.
type Details map[string]any

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return nil, fmt.Errorf("marshal log details: %w", err)
	}
	return string(b), nil
}

func (d *Details) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("scan log details: unsupported type %T", src)
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("scan log details: %w", err)
	}
	*d = m
	return nil
}

// Entry is one append-only audit record.
type Entry struct {
	LogID      int64     `db:"log_id" json:"id"`
	LicenseID  string    `db:"license_id" json:"license_id"`
	Action     Action    `db:"action" json:"action"`
	Details    Details   `db:"details" json:"details"`
	IPAddress  *string   `db:"ip_address" json:"ip_address"`
	HardwareID *string   `db:"hardware_id" json:"hardware_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
