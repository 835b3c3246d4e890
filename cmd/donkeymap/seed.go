package main

import (
	"context"
	"fmt"

	"donkeymap/internal/db"
	"donkeymap/internal/seed"
	"donkeymap/internal/store"
	"donkeymap/internal/survey"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with the reward catalogue and optional demo data",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "demo",
			Usage: "Also create demo users, surveys and responses",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of demo surveys to create",
			Value:   10,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded demo surveys first",
		},
	},
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

		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseSchema)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logger.Info("Connected to database")

		logger.Info("Seeding rewards...")
		if err := seed.SeedRewards(ctx, store.NewRewardRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed rewards: %w", err)
		}

		if !c.Bool("demo") {
			logger.Info("Rewards seeded successfully")
			return nil
		}

		// demo users need the privileged role when row security is on
		userRepo := store.NewUserRepository(pool)
		if cfg.ServiceConfigured() {
			servicePool, err := db.Connect(ctx, cfg.ServiceDatabaseURL, cfg.DatabaseSchema)
			if err != nil {
				return fmt.Errorf("failed to connect with service credentials: %w", err)
			}
			defer servicePool.Close()

			userRepo = store.NewUserRepository(servicePool)
		}

		logger.Info("Seeding demo users...")
		if err := seed.SeedDemoUsers(ctx, userRepo); err != nil {
			return fmt.Errorf("failed to seed demo users: %w", err)
		}

		logger.WithField("count", c.Int("count")).Info("Seeding demo surveys...")
		policy := survey.PointsPolicy{
			Base:        cfg.PointsBase,
			PerQuestion: cfg.PointsPerQuestion,
			Max:         cfg.PointsMax,
		}
		err = seed.SeedDemoSurveys(
			ctx,
			store.NewSurveyRepository(pool),
			store.NewResponseRepository(pool),
			policy,
			c.Int("count"),
			c.Bool("reset"),
		)
		if err != nil {
			return fmt.Errorf("failed to seed demo surveys: %w", err)
		}

		logger.Info("Demo data seeded successfully")
		return nil
	},
}
