package stats

// PlanCount is the number of licenses issued for one plan.
type PlanCount struct {
	PlanID string `db:"plan_id" json:"plan_id"`
	Name   string `db:"name" json:"name"`
	Count  int    `db:"count" json:"count"`
}

// Stats is the dashboard summary.
type Stats struct {
	ActiveCount       int         `db:"active_count" json:"active_count"`
	PendingCount      int         `db:"pending_count" json:"pending_count"`
	BlockedCount      int         `db:"blocked_count" json:"blocked_count"`
	ExpiredCount      int         `db:"expired_count" json:"expired_count"`
	TotalCount        int         `db:"total_count" json:"total_count"`
	RecentActivations int         `db:"-" json:"recent_activations"`
	ByPlan            []PlanCount `db:"-" json:"by_plan"`
}
