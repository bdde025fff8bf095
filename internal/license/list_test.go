package license_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lprime.com/licserver/internal/license"
)

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ana := f.create(t, license.CreateInput{CustomerName: "Ana Souza", CustomerEmail: "Ana@Example.com"})
	f.clock.Set(t0.Add(time.Minute))
	bruno := f.create(t, license.CreateInput{PlanID: "anual", CustomerName: "Bruno", CustomerEmail: "bruno@corp.test"})
	f.clock.Set(t0.Add(2 * time.Minute))
	joao := f.create(t, license.CreateInput{CustomerName: "JOÃO Conceição", CustomerEmail: "joao@corp.test"})

	f.activate(t, bruno.LicenseKey, "HW1", "PC1")

	ids := func(ls []license.License) []string {
		out := make([]string, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.LicenseID)
		}
		return out
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID, bruno.LicenseID, ana.LicenseID}, ids(got))
		assert.Equal(t, "Anual", got[1].PlanName)
		assert.Equal(t, 399.90, got[1].PlanPrice)
	})

	t.Run("status filter is exact", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Status: "active"})
		require.NoError(t, err)
		assert.Equal(t, []string{bruno.LicenseID}, ids(got))

		got, err = f.svc.List(ctx, license.Filter{Status: "pending"})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID, ana.LicenseID}, ids(got))

		got, err = f.svc.List(ctx, license.Filter{Status: "blocked"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := f.svc.List(ctx, license.Filter{Status: "deleted"})
		assert.ErrorIs(t, err, license.ErrInvalidStatus)
	})

	t.Run("search email substring ignores case", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Search: "example.COM"})
		require.NoError(t, err)
		assert.Equal(t, []string{ana.LicenseID}, ids(got))

		got, err = f.svc.List(ctx, license.Filter{Search: "corp.test"})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID, bruno.LicenseID}, ids(got))
	})

	t.Run("search non-ascii name ignores case", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Search: "conceição"})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID}, ids(got))

		got, err = f.svc.List(ctx, license.Filter{Search: "joão"})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID}, ids(got))
	})

	t.Run("search by key", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Search: bruno.LicenseKey[7:]})
		require.NoError(t, err)
		assert.Contains(t, ids(got), bruno.LicenseID)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = f.svc.List(ctx, license.Filter{Search: "_"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("search and status combine", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Status: "pending", Search: "corp.test"})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID}, ids(got))
	})

	t.Run("pagination", func(t *testing.T) {
		got, err := f.svc.List(ctx, license.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{joao.LicenseID, bruno.LicenseID}, ids(got))

		got, err = f.svc.List(ctx, license.Filter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{ana.LicenseID}, ids(got))
	})
}
