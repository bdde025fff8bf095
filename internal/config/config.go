package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimit configures the per-IP limits on the client API.
type RateLimit struct {
	APIRequests      int           `yaml:"api_requests"`
	APIWindow        time.Duration `yaml:"api_window"`
	ActivateRequests int           `yaml:"activate_requests"`
	ActivateWindow   time.Duration `yaml:"activate_window"`
}

// Config holds all configuration values
type Config struct {
	Addr          string        `yaml:"addr"`
	DBPath        string        `yaml:"db_path"`
	DBTimeout     time.Duration `yaml:"db_timeout"`
	LicenseSecret string        `yaml:"license_secret"`
	AppAPIKey     string        `yaml:"app_api_key"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	BackupKeep    int           `yaml:"backup_keep"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`

	DBPathSource string // where DBPath was set from: "default", "yaml file", or "env var"
	DemoMode     bool   // load sample data on new database (set via --demo flag)
}

// Default returns the configuration used when no file or env var overrides a value.
func Default() *Config {
	return &Config{
		Addr:         ":3001",
		DBPath:       "./licenses.db",
		DBPathSource: "default",
		DBTimeout:    5 * time.Second,
		TokenTTL:     24 * time.Hour,
		CORSOrigins:  []string{"*"},
		LogLevel:     "info",
		LogFormat:    "json",
		RateLimit: RateLimit{
			APIRequests:      100,
			APIWindow:        15 * time.Minute,
			ActivateRequests: 10,
			ActivateWindow:   time.Hour,
		},
		BackupKeep:   10,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Load loads configuration from YAML file and overrides with env vars if present
func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from YAML if file exists
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		prevDBPath := cfg.DBPath
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.DBPath != prevDBPath {
			cfg.DBPathSource = "yaml file"
		}
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
		cfg.DBPathSource = "env var"
	}
	if v := os.Getenv("LICENSE_SECRET"); v != "" {
		cfg.LicenseSecret = v
	}
	if v := os.Getenv("APP_API_KEY"); v != "" {
		cfg.AppAPIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// Validate reports every missing secret and nonsensical limit at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LicenseSecret == "" {
		errs = append(errs, errors.New("LICENSE_SECRET (license_secret) is required"))
	}
	if c.AppAPIKey == "" {
		errs = append(errs, errors.New("APP_API_KEY (app_api_key) is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET (jwt_secret) is required"))
	}
	if c.RateLimit.APIRequests <= 0 || c.RateLimit.APIWindow <= 0 {
		errs = append(errs, errors.New("rate_limit.api_requests and rate_limit.api_window must be positive"))
	}
	if c.RateLimit.ActivateRequests <= 0 || c.RateLimit.ActivateWindow <= 0 {
		errs = append(errs, errors.New("rate_limit.activate_requests and rate_limit.activate_window must be positive"))
	}
	if c.DBTimeout <= 0 {
		errs = append(errs, errors.New("db_timeout must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
