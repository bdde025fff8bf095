package plan

import "errors"

var ErrNotFound = errors.New("plan not found")

// Plan is a purchasable tier. Plans are seeded by migration and treated as
// reference data.
type Plan struct {
	PlanID       string  `db:"plan_id" json:"id"`
	Name         string  `db:"name" json:"name"`
	DurationDays int     `db:"duration_days" json:"duration_days"`
	Price        float64 `db:"price" json:"price"`
	Description  string  `db:"description" json:"description"`
	Active       bool    `db:"active" json:"active"`
}
