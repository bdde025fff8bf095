package license_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"lprime.com/licserver/internal/keycodec"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/testutil"
)

const testSecret = "test-license-secret"

var t0 = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	db    *sqlx.DB
	svc   *license.Service
	clock *fakeClock
	codec *keycodec.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := &fakeClock{t: t0}
	codec := keycodec.New(testSecret)
	svc := license.NewService(db, codec, license.WithClock(clock.Now), license.WithTimeout(5*time.Second))
	return &fixture{db: db, svc: svc, clock: clock, codec: codec}
}

func (f *fixture) create(t *testing.T, in license.CreateInput) *license.License {
	t.Helper()
	if in.PlanID == "" {
		in.PlanID = "mensal"
	}
	lic, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return lic
}

func (f *fixture) activate(t *testing.T, key, hw, machine string) *license.License {
	t.Helper()
	res, err := f.svc.Activate(context.Background(), license.ActivateInput{
		LicenseKey:  key,
		HardwareID:  hw,
		MachineName: machine,
		SourceIP:    "203.0.113.7",
	})
	require.NoError(t, err)
	return res.License
}

func (f *fixture) validate(key, hw string) (*license.ValidateResult, error) {
	return f.svc.Validate(context.Background(), license.ValidateInput{
		LicenseKey: key,
		HardwareID: hw,
		SourceIP:   "203.0.113.7",
	})
}

func strPtr(s string) *string { return &s }
