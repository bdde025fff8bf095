// Package demodata provides sample data for demo deployments.
package demodata

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/license"
)

//go:embed sample.yaml
var sampleYAML []byte

// DemoAdminID is recorded as the actor for demo block actions.
const DemoAdminID = "demo"

type sampleAdmin struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
}

type sampleActivation struct {
	HardwareID  string `yaml:"hardware_id"`
	MachineName string `yaml:"machine_name"`
}

type sampleLicense struct {
	Plan          string            `yaml:"plan"`
	CustomerName  string            `yaml:"customer_name"`
	CustomerEmail string            `yaml:"customer_email"`
	CustomerPhone string            `yaml:"customer_phone"`
	Notes         string            `yaml:"notes"`
	Activate      *sampleActivation `yaml:"activate"`
	Block         string            `yaml:"block"`
}

type sample struct {
	Admin    sampleAdmin     `yaml:"admin"`
	Licenses []sampleLicense `yaml:"licenses"`
}

// Summary reports what Load created.
type Summary struct {
	AdminUsername string
	AdminCreated  bool
	Licenses      []*license.License
}

func parse() (*sample, error) {
	var s sample
	if err := yaml.Unmarshal(sampleYAML, &s); err != nil {
		return nil, fmt.Errorf("parse sample data: %w", err)
	}
	return &s, nil
}

// Load creates the sample licenses through the license engine, so keys,
// expiries and audit entries are real. The demo admin is only created when
// no account exists yet.
// This should only be called on a freshly created database after migrations.
func Load(ctx context.Context, lics *license.Service, accounts *account.Service) (*Summary, error) {
	s, err := parse()
	if err != nil {
		return nil, err
	}

	sum := &Summary{AdminUsername: s.Admin.Username}

	n, err := accounts.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		_, err := accounts.Create(ctx, account.CreateInput{
			Username: s.Admin.Username,
			Password: s.Admin.Password,
			Name:     s.Admin.Name,
			Email:    s.Admin.Email,
		})
		if err != nil {
			return nil, fmt.Errorf("create demo admin: %w", err)
		}
		sum.AdminCreated = true
	}

	for i, sl := range s.Licenses {
		lic, err := lics.Create(ctx, license.CreateInput{
			PlanID:        sl.Plan,
			CustomerName:  sl.CustomerName,
			CustomerEmail: sl.CustomerEmail,
			CustomerPhone: sl.CustomerPhone,
			Notes:         sl.Notes,
		})
		if err != nil {
			return nil, fmt.Errorf("create demo license %d: %w", i+1, err)
		}

		if sl.Activate != nil {
			res, err := lics.Activate(ctx, license.ActivateInput{
				LicenseKey:  lic.LicenseKey,
				HardwareID:  sl.Activate.HardwareID,
				MachineName: sl.Activate.MachineName,
				SourceIP:    "127.0.0.1",
			})
			if err != nil {
				return nil, fmt.Errorf("activate demo license %d: %w", i+1, err)
			}
			lic = res.License
		}

		if sl.Block != "" {
			lic, err = lics.Block(ctx, lic.LicenseID, sl.Block, DemoAdminID)
			if err != nil {
				return nil, fmt.Errorf("block demo license %d: %w", i+1, err)
			}
		}

		sum.Licenses = append(sum.Licenses, lic)
	}

	return sum, nil
}
