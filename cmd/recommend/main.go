package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"addon_engine/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg, err := InitServerConfig(os.Args[1:])
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	logger.Init(logger.Config{Debug: cfg.Server.Debug, Format: cfg.Server.LogFormat})
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := setup(cfg)
	if err != nil {
		logger.Fatal("Failed to init recommendation service: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting HTTP server on port %s...", cfg.Server.Port)
	if err := app.supervise().Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Supervisor stopped: %v", err)
	}
	logger.Info("Shut down")
}
