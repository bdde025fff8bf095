package license_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lprime.com/licserver/internal/license"
)

func TestScenarioMonthlyPlanExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lic := f.create(t, license.CreateInput{PlanID: "mensal", CustomerName: "Carlos"})

	res, err := f.svc.Activate(ctx, license.ActivateInput{
		LicenseKey:  lic.LicenseKey,
		HardwareID:  "HW1",
		MachineName: "PC1",
		SourceIP:    "198.51.100.1",
	})
	require.NoError(t, err)
	assert.True(t, res.FirstActivation)
	assert.True(t, res.License.ExpiresAt.Equal(t0.Add(30*24*time.Hour)))

	f.clock.Set(t0.Add(29 * 24 * time.Hour))
	v, err := f.validate(lic.LicenseKey, "HW1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.DaysRemaining)

	f.clock.Set(t0.Add(31 * 24 * time.Hour))
	_, err = f.validate(lic.LicenseKey, "HW1")
	require.Error(t, err)
	assert.Equal(t, license.CodeExpired, license.Code(err))

	got, err := f.svc.Get(ctx, lic.LicenseID)
	require.NoError(t, err)
	assert.Equal(t, license.StatusExpired, got.Status)
}

func TestScenarioSecondMachineReportsFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lic := f.create(t, license.CreateInput{PlanID: "mensal"})
	f.activate(t, lic.LicenseKey, "HW1", "PC1")

	_, err := f.svc.Activate(ctx, license.ActivateInput{LicenseKey: lic.LicenseKey, HardwareID: "HW2", MachineName: "PC2"})
	require.Error(t, err)
	assert.Equal(t, license.CodeAlreadyActivated, license.Code(err))

	var already *license.AlreadyActivatedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, "PC1", already.MachineName)
}
