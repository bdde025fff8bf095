package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"lprime.com/licserver/internal/account"
	"lprime.com/licserver/internal/backup"
	"lprime.com/licserver/internal/config"
	"lprime.com/licserver/internal/logging"
	"lprime.com/licserver/internal/server"
	"lprime.com/licserver/internal/sqlite"
	"lprime.com/licserver/internal/version"
)

const shutdownTimeout = 10 * time.Second

// loadConfig reads the --config file and configures logging from it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the license server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "load sample data on new database (for demos)",
			},
		},
		Action: func(c *cli.Context) error {
			fmt.Println(version.Banner())

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cfg.DemoMode = c.Bool("demo")

			srv, err := server.Build(cfg)
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}
			defer srv.DB.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info().Str("addr", cfg.Addr).Msg("server listening")
				if err := srv.Echo.StartServer(srv.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				log.Info().Msg("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Echo.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
}

func routesCommand() *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "Print registered routes and exit",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			srv, err := server.Build(cfg)
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}
			defer srv.DB.Close()

			routes := srv.Echo.Routes()
			sort.Slice(routes, func(i, j int) bool {
				if routes[i].Path == routes[j].Path {
					return routes[i].Method < routes[j].Method
				}
				return routes[i].Path < routes[j].Path
			})

			for _, r := range routes {
				fmt.Printf("%-6s %s\n", r.Method, r.Path)
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema and seed plans",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			log.Info().Str("path", cfg.DBPath).Msg("database migrated")
			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the SQL schema applied by migrations",
		Action: func(c *cli.Context) error {
			fmt.Print(sqlite.Schema())
			return nil
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an account for the admin API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Value: "admin", Usage: "login name"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"ADMIN_PASSWORD"}, Required: true, Usage: "initial password (at least 6 characters)"},
			&cli.StringFlag{Name: "name", Value: "Administrator", Usage: "display name"},
			&cli.StringFlag{Name: "email", Usage: "contact email"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := account.NewService(db).Create(c.Context, account.CreateInput{
				Username: c.String("username"),
				Password: c.String("password"),
				Name:     c.String("name"),
				Email:    c.String("email"),
			})
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}

			log.Info().Str("admin_id", a.AdminID).Str("username", a.Username).Msg("admin account created")
			return nil
		},
	}
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Write a compressed SQL dump next to the database",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := backup.NewService(db, cfg.DBPath, backup.WithKeep(cfg.BackupKeep)).CreateBackup(c.Context)
			if err != nil {
				return err
			}
			fmt.Println(res.Path)
			return nil
		},
	}
}
