package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	mwecho "github.com/labstack/echo/v4/middleware"
	mwsvc "lprime.com/licserver/internal/middleware"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/auth"
	"lprime.com/licserver/internal/backup"
	"lprime.com/licserver/internal/config"
	"lprime.com/licserver/internal/demodata"
	"lprime.com/licserver/internal/keycodec"
	"lprime.com/licserver/internal/license"
	"lprime.com/licserver/internal/metrics"
	"lprime.com/licserver/internal/plan"
	"lprime.com/licserver/internal/sqlite"
	"lprime.com/licserver/internal/stats"

	adminhttp "lprime.com/licserver/internal/http/admin"
	clienthttp "lprime.com/licserver/internal/http/client"
)

// bodyLimit caps request bodies; every endpoint takes a small JSON object.
const bodyLimit = "64K"

type Server struct {
	Echo *echo.Echo
	HTTP *http.Server
	DB   *sqlx.DB
}

func Build(cfg *config.Config) (*Server, error) {
	//
	// Validate required settings
	//
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	//
	// Database
	//
	isNewDB := false
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		isNewDB = true
		log.Info().Str("path", cfg.DBPath).Str("source", cfg.DBPathSource).Msg("creating database")
	} else {
		log.Info().Str("path", cfg.DBPath).Str("source", cfg.DBPathSource).Msg("opening database")
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	//
	// Domain services
	//
	codec := keycodec.New(cfg.LicenseSecret)
	licenseSvc := license.NewService(db, codec, license.WithTimeout(cfg.DBTimeout))
	planSvc := plan.NewService(db)
	statsSvc := stats.NewService(db, time.Now)
	accountSvc := account.NewService(db)
	backupSvc := backup.NewService(db, cfg.DBPath, backup.WithKeep(cfg.BackupKeep))

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		db.Close()
		return nil, err
	}

	ctx := context.Background()

	// Load demo data if requested and database is new
	if cfg.DemoMode && isNewDB {
		sum, err := demodata.Load(ctx, licenseSvc, accountSvc)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load demo data: %w", err)
		}
		log.Info().Int("licenses", len(sum.Licenses)).Str("admin", sum.AdminUsername).Msg("demo data loaded")
	}

	if n, err := accountSvc.Count(ctx); err == nil && n == 0 {
		log.Warn().Msg("no admin accounts exist; create one with 'licserver create-admin'")
	}

	reg := metrics.NewRegistry()

	//
	// Handlers
	//
	clientHandler := clienthttp.NewHandler(licenseSvc, reg)

	adminSvc := adminhttp.NewService(
		licenseSvc,
		planSvc,
		statsSvc,
		accountSvc,
		tokens,
		backupSvc,
	)
	adminHandler := adminhttp.NewHandler(adminSvc, reg)

	//
	// Echo
	//
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = mwsvc.NewValidator()
	e.HTTPErrorHandler = mwsvc.ErrorHandler

	// Middleware
	e.Use(mwecho.Recover())
	e.Use(mwsvc.RequestLogger())
	e.Use(reg.Middleware())
	e.Use(mwecho.Secure())
	e.Use(mwecho.CORSWithConfig(mwecho.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, mwsvc.APIKeyHeader},
	}))
	e.Use(mwecho.BodyLimit(bodyLimit))
	e.Use(mwsvc.Version())

	// Health endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	e.GET("/livez", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.GET("/readyz", func(c echo.Context) error {
		if err := db.PingContext(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "DB not ready")
		}
		return c.String(http.StatusOK, "Ready")
	})

	e.GET("/metrics", echo.WrapHandler(reg.Handler()))

	// Client API
	clientGroup := e.Group("/api/licenses")
	clientGroup.Use(mwsvc.RateLimit(cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow,
		"too many requests, try again in a few minutes"))
	clientGroup.Use(mwsvc.AppAPIKeyAuth(cfg.AppAPIKey))
	clienthttp.RegisterRoutes(clientGroup, clientHandler,
		mwsvc.RateLimit(cfg.RateLimit.ActivateRequests, cfg.RateLimit.ActivateWindow,
			"too many activation attempts, try again later"))

	// Admin API
	adminGroup := e.Group("/api/admin")
	adminhttp.RegisterRoutes(adminGroup, adminHandler, mwsvc.AdminJWTAuth(tokens, accountSvc))

	//
	// HTTP server
	//
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		Echo: e,
		HTTP: srv,
		DB:   db,
	}, nil
}
