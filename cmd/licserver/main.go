package main

import (
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/urfave/cli/v2"

	"lprime.com/licserver/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "licserver",
		Usage:   "License key server for Licitante Prime",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "config.yaml",
				EnvVars: []string{"LICSERVER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			routesCommand(),
			migrateCommand(),
			schemaCommand(),
			createAdminCommand(),
			backupCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
