// Package initializer builds the application's infrastructure dependencies.
package initializer

import (
	"fmt"

	infraprovider "github.com/doemais/marketplace/infra/provider"
	infrarepository "github.com/doemais/marketplace/infra/repository"
	"github.com/doemais/marketplace/pkg/app"
	"github.com/doemais/marketplace/pkg/config"
)

// InitializeDependencies builds all infrastructure dependencies from config.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	deps := &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := infrarepository.NewDBConnection(cfg.DB.Url)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}

	deps.DonationRepo = infrarepository.NewDonationRepository(db)
	deps.Organizations = infrarepository.NewOrganizationDirectory(db)
	deps.WebhookEventLog = infrarepository.NewWebhookEventLog(db)

	switch cfg.Gateway.Mode {
	case "live":
		if cfg.Gateway.ApiKey == "" {
			return nil, fmt.Errorf("live gateway mode requires GATEWAY_API_KEY")
		}
		deps.PaymentGateway = infraprovider.NewLiveGateway(&cfg.Gateway, logger)
		logger.Info("Using live payment gateway", "api_url", cfg.Gateway.ApiUrl)
	case "mock":
		deps.PaymentGateway = infraprovider.NewMockGateway(infraprovider.NewMockStore())
		logger.Warn("Using mock payment gateway; no real charges will be made")
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Gateway.Mode)
	}

	return deps, nil
}
