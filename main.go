package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/medusa-ctf/medusa-backend/app"
	"github.com/medusa-ctf/medusa-backend/config"
	"github.com/medusa-ctf/medusa-backend/pkg/observability"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	obs := observability.New(observability.Config{
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})
	logger := obs.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		if errors.Is(err, config.ErrConfiguration) {
			logger.Error("Invalid configuration", "error", err)
			os.Exit(2)
		}
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	logger.Info("Medusa backend started")
	runErr := application.Run(ctx)
	cancel()
	application.Close()

	if runErr != nil {
		logger.Error("Server stopped with error", "error", runErr)
		os.Exit(1)
	}
}
