package plan

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Service struct {
	repo Repository
}

func NewService(db *sqlx.DB) *Service {
	return &Service{repo: New(db)}
}

// GetAll returns every plan ordered by duration.
func (s *Service) GetAll(ctx context.Context) ([]Plan, error) {
	return s.repo.GetAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	return s.repo.Get(ctx, id)
}
