package main

import (
	"context"
	"fmt"

	"donkeymap/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the database schema",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()

		// the schema owner is usually the service role
		url := cfg.DatabaseURL
		if cfg.ServiceConfigured() {
			url = cfg.ServiceDatabaseURL
		}

		pool, err := db.Connect(ctx, url, cfg.DatabaseSchema)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}

		logger.WithField("schema", cfg.DatabaseSchema).Info("schema applied")
		return nil
	},
}
