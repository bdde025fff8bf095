package stats_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lprime.com/licserver/internal/keycodec"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/stats"
	"lprime.com/licserver/internal/testutil"
)

func TestGet(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := stats.NewService(db, func() time.Time { return now })

	t.Run("empty database lists every plan", func(t *testing.T) {
		st, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, st.TotalCount)
		assert.Equal(t, 0, st.RecentActivations)
		require.Len(t, st.ByPlan, 5)
		for _, p := range st.ByPlan {
			assert.Equal(t, 0, p.Count)
		}
	})

	var licClock time.Time
	lics := license.NewService(db, keycodec.New("secret"), license.WithClock(func() time.Time { return licClock }))

	mk := func(planID string) *license.License {
		l, err := lics.Create(ctx, license.CreateInput{PlanID: planID})
		require.NoError(t, err)
		return l
	}
	activateAt := func(l *license.License, at time.Time) {
		licClock = at
		_, err := lics.Activate(ctx, license.ActivateInput{LicenseKey: l.LicenseKey, HardwareID: "HW-" + l.LicenseID})
		require.NoError(t, err)
	}

	licClock = now.Add(-30 * 24 * time.Hour)
	recent1 := mk("anual")
	recent2 := mk("anual")
	old := mk("anual")
	blocked := mk("mensal")
	expired := mk("mensal")
	mk("mensal") // pending
	mk("trimestral")

	activateAt(recent1, now.Add(-2*24*time.Hour))
	activateAt(recent2, now.Add(-6*24*time.Hour))
	activateAt(old, now.Add(-8*24*time.Hour))
	activateAt(blocked, now.Add(-20*24*time.Hour))
	activateAt(expired, now.Add(-40*24*time.Hour))

	licClock = now
	_, err := lics.Block(ctx, blocked.LicenseID, "fraud", "admin")
	require.NoError(t, err)
	_, err = lics.Validate(ctx, license.ValidateInput{LicenseKey: expired.LicenseKey, HardwareID: "HW-" + expired.LicenseID})
	require.ErrorIs(t, err, license.ErrExpired)

	st, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, st.ActiveCount)
	assert.Equal(t, 2, st.PendingCount)
	assert.Equal(t, 1, st.BlockedCount)
	assert.Equal(t, 1, st.ExpiredCount)
	assert.Equal(t, 7, st.TotalCount)
	assert.Equal(t, 2, st.RecentActivations)

	require.Len(t, st.ByPlan, 5)
	assert.Equal(t, stats.PlanCount{PlanID: "anual", Name: "Anual", Count: 3}, st.ByPlan[0])
	assert.Equal(t, stats.PlanCount{PlanID: "mensal", Name: "Mensal", Count: 3}, st.ByPlan[1])
	assert.Equal(t, stats.PlanCount{PlanID: "trimestral", Name: "Trimestral", Count: 1}, st.ByPlan[2])
	// zero-count plans ordered by name
	assert.Equal(t, "Semestral", st.ByPlan[3].Name)
	assert.Equal(t, "Vitalício", st.ByPlan[4].Name)
	assert.Equal(t, 0, st.ByPlan[4].Count)
}
