package main

import (
	"context"
	"fmt"
	"time"

	"donkeymap/internal/db"
	"donkeymap/internal/export"
	"donkeymap/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "Write approved survey responses to S3 as JSON Lines",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "bucket",
			Usage: "Destination bucket, defaults to EXPORT_BUCKET",
		},
		&cli.DurationFlag{
			Name:  "since",
			Usage: "Export responses submitted within this window",
			Value: 24 * time.Hour,
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

		bucket := c.String("bucket")
		if bucket == "" {
			bucket = cfg.ExportBucket
		}

		ctx := context.Background()

		awsConfig, err := loadAWSConfig(ctx, cfg.CognitoRegion)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseSchema)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		exporter, err := export.New(
			logger,
			s3.NewFromConfig(awsConfig),
			store.NewSurveyRepository(pool),
			store.NewResponseRepository(pool),
			bucket,
			cfg.ExportPrefix,
		)
		if err != nil {
			return err
		}

		now := time.Now()
		summary, err := exporter.Export(ctx, now.Add(-c.Duration("since")), now)
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"bucket":    bucket,
			"surveys":   summary.Surveys,
			"responses": summary.Responses,
		}).Info("export finished")

		return nil
	},
}
