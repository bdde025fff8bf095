package auditlog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultLimit is the number of entries returned when the caller passes none.
const DefaultLimit = 50

type Repository interface {
	// Append writes e inside tx. A failure must abort the caller's transaction.
	Append(ctx context.Context, tx *sqlx.Tx, e *Entry) error
	ListForLicense(ctx context.Context, licenseID string, limit int) ([]Entry, error)
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Append(ctx context.Context, tx *sqlx.Tx, e *Entry) error {
	res, err := tx.ExecContext(ctx, appendEntrySQL,
		e.LicenseID,
		e.Action,
		e.Details,
		e.IPAddress,
		e.HardwareID,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append license log: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.LogID = id
	}
	return nil
}

// ListForLicense returns the newest entries first.
func (r *repo) ListForLicense(ctx context.Context, licenseID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := []Entry{}
	err := r.db.SelectContext(ctx, &out, listForLicenseSQL, licenseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list license logs: %w", err)
	}
	return out, nil
}
