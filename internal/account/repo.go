package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, a *Account) error
	UpdatePassword(ctx context.Context, tx *sqlx.Tx, id, hash string, at time.Time) error
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, id string) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a, getAccountSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *repo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := r.db.GetContext(ctx, &a, getAccountByUsernameSQL, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return &a, nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, countAccountsSQL); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func (r *repo) Create(ctx context.Context, tx *sqlx.Tx, a *Account) error {
	_, err := tx.ExecContext(ctx, createAccountSQL,
		a.AdminID,
		a.Username,
		a.PasswordHash,
		a.Name,
		a.Email,
		a.Role,
		a.Active,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *repo) UpdatePassword(ctx context.Context, tx *sqlx.Tx, id, hash string, at time.Time) error {
	res, err := tx.ExecContext(ctx, updatePasswordSQL, hash, at, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
