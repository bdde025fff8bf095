package license

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// activation holds the column values written by a successful activation.
type activation struct {
	HardwareID  string
	MachineName *string
	ExpiresAt   time.Time
	SourceIP    *string
	At          time.Time
}

type Repository interface {
	Get(ctx context.Context, id string) (*License, error)
	GetByKey(ctx context.Context, key string) (*License, error)
	List(ctx context.Context, f Filter) ([]License, error)

	// Tx variants read inside a write transaction
	GetTx(ctx context.Context, tx *sqlx.Tx, id string) (*License, error)
	GetByKeyTx(ctx context.Context, tx *sqlx.Tx, key string) (*License, error)

	Create(ctx context.Context, tx *sqlx.Tx, lic *License) error
	Activate(ctx context.Context, tx *sqlx.Tx, id string, a activation) (bool, error)
	MarkValidated(ctx context.Context, tx *sqlx.Tx, id string, at time.Time, ip *string) error
	MarkExpired(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error
	Block(ctx context.Context, tx *sqlx.Tx, id, reason string, at time.Time) error
	Unblock(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error
	ResetHardware(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error
	Update(ctx context.Context, tx *sqlx.Tx, lic *License) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, id string) (*License, error) {
	return getOne(ctx, r.db, getLicenseSQL, id)
}

func (r *repo) GetByKey(ctx context.Context, key string) (*License, error) {
	return getOne(ctx, r.db, getLicenseByKeySQL, key)
}

func (r *repo) GetTx(ctx context.Context, tx *sqlx.Tx, id string) (*License, error) {
	return getOne(ctx, tx, getLicenseSQL, id)
}

func (r *repo) GetByKeyTx(ctx context.Context, tx *sqlx.Tx, key string) (*License, error) {
	return getOne(ctx, tx, getLicenseByKeySQL, key)
}

func getOne(ctx context.Context, q sqlx.QueryerContext, query, arg string) (*License, error) {
	var lic License
	err := sqlx.GetContext(ctx, q, &lic, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}
	return &lic, nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]License, error) {
	var pattern string
	if f.Search != "" {
		pattern = "%" + escapeLike(foldSearch(f.Search)) + "%"
	}

	out := []License{}
	err := r.db.SelectContext(ctx, &out, listLicensesSQL,
		f.Status, f.Status,
		pattern, pattern,
		f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *repo) Create(ctx context.Context, tx *sqlx.Tx, lic *License) error {
	_, err := tx.ExecContext(ctx, createLicenseSQL,
		lic.LicenseID,
		lic.LicenseKey,
		lic.PlanID,
		lic.Status,
		lic.CustomerName,
		lic.CustomerEmail,
		lic.CustomerPhone,
		lic.Notes,
		lic.searchText(),
		lic.MaxActivations,
		lic.CreatedAt,
		lic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create license: %w", err)
	}
	return nil
}

// Activate reports false when another hardware binding is already in place.
func (r *repo) Activate(ctx context.Context, tx *sqlx.Tx, id string, a activation) (bool, error) {
	res, err := tx.ExecContext(ctx, activateLicenseSQL,
		a.HardwareID,
		a.MachineName,
		a.At,
		a.ExpiresAt,
		a.At,
		a.SourceIP,
		a.At,
		id,
		a.HardwareID,
	)
	if err != nil {
		return false, fmt.Errorf("activate license: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("activate license: %w", err)
	}
	return n == 1, nil
}

func (r *repo) MarkValidated(ctx context.Context, tx *sqlx.Tx, id string, at time.Time, ip *string) error {
	return execOne(ctx, tx, "mark license validated", markValidatedSQL, at, ip, at, id)
}

func (r *repo) MarkExpired(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error {
	return execOne(ctx, tx, "mark license expired", markExpiredSQL, at, id)
}

func (r *repo) Block(ctx context.Context, tx *sqlx.Tx, id, reason string, at time.Time) error {
	return execOne(ctx, tx, "block license", blockLicenseSQL, at, reason, at, id)
}

func (r *repo) Unblock(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error {
	return execOne(ctx, tx, "unblock license", unblockLicenseSQL, at, id)
}

func (r *repo) ResetHardware(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) error {
	return execOne(ctx, tx, "reset license hardware", resetHardwareSQL, at, id)
}

func (r *repo) Update(ctx context.Context, tx *sqlx.Tx, lic *License) error {
	return execOne(ctx, tx, "update license", updateLicenseSQL,
		lic.CustomerName,
		lic.CustomerEmail,
		lic.CustomerPhone,
		lic.Notes,
		lic.searchText(),
		lic.UpdatedAt,
		lic.LicenseID,
	)
}

func (r *repo) Delete(ctx context.Context, tx *sqlx.Tx, id string) error {
	return execOne(ctx, tx, "delete license", deleteLicenseSQL, id)
}

// execOne runs a single-row statement and maps zero affected rows to ErrNotFound.
func execOne(ctx context.Context, tx *sqlx.Tx, op, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
