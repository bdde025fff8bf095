package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RecentWindow is the trailing period counted as recent activations.
const RecentWindow = 7 * 24 * time.Hour

// Service derives dashboard counts from current license state. It never
// caches, so every call reflects the latest committed data.
type Service struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewService(db *sqlx.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

// Get runs all aggregate queries in a single transaction so the counts agree.
func (s *Service) Get(ctx context.Context) (*Stats, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin stats: %w", err)
	}
	defer tx.Rollback()

	var st Stats
	if err := tx.GetContext(ctx, &st, statusCountsSQL); err != nil {
		return nil, fmt.Errorf("count licenses by status: %w", err)
	}

	since := s.now().UTC().Add(-RecentWindow)
	if err := tx.GetContext(ctx, &st.RecentActivations, recentActivationsSQL, since); err != nil {
		return nil, fmt.Errorf("count recent activations: %w", err)
	}

	st.ByPlan = []PlanCount{}
	if err := tx.SelectContext(ctx, &st.ByPlan, byPlanSQL); err != nil {
		return nil, fmt.Errorf("count licenses by plan: %w", err)
	}

	return &st, nil
}
