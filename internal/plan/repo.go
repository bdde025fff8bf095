package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetAll(ctx context.Context) ([]Plan, error)
	Get(ctx context.Context, id string) (*Plan, error)
}

type repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetAll(ctx context.Context) ([]Plan, error) {
	var out []Plan
	err := r.db.SelectContext(ctx, &out, getAllPlansSQL)
	if err != nil {
		return nil, fmt.Errorf("get all plans: %w", err)
	}
	return out, nil
}

func (r *repo) Get(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, getPlanSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w (%s)", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}
