package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donkeymap/internal/auth"
	"donkeymap/internal/db"
	"donkeymap/internal/server"
	"donkeymap/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger, err := newLogger(config)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config.DatabaseURL, config.DatabaseSchema)
	if err != nil {
		return err
	}
	defer pool.Close()

	userRepo := store.NewUserRepository(pool)
	repos := server.Repositories{
		Users:     userRepo,
		Surveys:   store.NewSurveyRepository(pool),
		Responses: store.NewResponseRepository(pool),
		Rewards:   store.NewRewardRepository(pool),
		Claims:    store.NewClaimRepository(pool),
	}

	if config.ServiceConfigured() {
		servicePool, err := db.Connect(ctx, config.ServiceDatabaseURL, config.DatabaseSchema)
		if err != nil {
			return fmt.Errorf("failed to connect with service credentials: %w", err)
		}
		defer servicePool.Close()

		repos.ServiceUsers = store.NewUserRepository(servicePool)
	} else {
		logger.Warn("SERVICE_DATABASE_URL not set, user provisioning and stats are disabled")
	}

	var (
		cognito  server.CognitoAPI
		verifier server.TokenVerifier
	)
	if config.AuthConfigured() {
		awsConfig, err := loadAWSConfig(ctx, config.CognitoRegion)
		if err != nil {
			return err
		}
		cognito = cognitoidentityprovider.NewFromConfig(awsConfig)

		jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
		if err != nil {
			return fmt.Errorf("failed to initialize jwk cache: %w", err)
		}

		if err := jwkCache.Register(ctx, auth.JWKSURL(config.CognitoIssuerURL)); err != nil {
			return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
		}

		verifier = auth.NewVerifier(jwkCache, config.CognitoIssuerURL, config.CognitoClientID)
	} else {
		logger.Warn("Cognito is not configured, authentication routes will answer 500")
	}

	srv, err := server.New(config, logger, cognito, verifier, repos)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
