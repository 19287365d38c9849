package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/Haleralex/vowdesk/internal/config"
	"github.com/Haleralex/vowdesk/internal/container"
)

func main() {
	var (
		configPath string
		configName string
	)
	flag.StringVar(&configPath, "config-path", "configs", "Directory with the config file")
	flag.StringVar(&configName, "config-name", "vowdesk", "Config file name without extension")
	flag.Parse()

	// 1. Configuration (.env -> file -> VOWDESK_* env)
	cfg, err := config.Load(configPath, configName)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Dependencies
	ctx := context.Background()
	app := container.New(cfg)
	if err := app.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	logger := app.Logger()
	logger.Info("VowDesk API ready",
		slog.String("health", "http://"+cfg.Server.Address()+"/health"),
	)

	// 3. Run until SIGINT/SIGTERM
	if err := app.Run(ctx); err != nil {
		logger.Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
