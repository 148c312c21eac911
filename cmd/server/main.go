package main

import (
	"fmt"
	"log/slog"

	"github.com/doemais/marketplace/infra/initializer"
	"github.com/doemais/marketplace/pkg/app"
	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/webapi"
	log "github.com/charmbracelet/log"
)

// @title Doemais Donation API
// @version 1.0.0
// @description Donation payment lifecycle API for the Doemais marketplace
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	a, err := app.New(deps, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble application: %w", err)
	}
	fiberApp := webapi.SetupApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"gateway_mode", cfg.Gateway.Mode,
	)

	return fiberApp.Listen(addr)
}
