// Package app assembles the services from their dependencies.
package app

import (
	"fmt"
	"log/slog"

	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/doemais/marketplace/pkg/repository"
	donationsvc "github.com/doemais/marketplace/pkg/service/donation"
	reconciliationsvc "github.com/doemais/marketplace/pkg/service/reconciliation"
	subscriptionsvc "github.com/doemais/marketplace/pkg/service/subscription"
)

// Deps contains the infrastructure dependencies the services are built from.
type Deps struct {
	DonationRepo    repository.DonationRepository
	Organizations   repository.OrganizationDirectory
	WebhookEventLog repository.WebhookEventLog
	PaymentGateway  payment.Gateway
	Logger          *slog.Logger
}

// App holds the wired services and configuration.
type App struct {
	Deps   *Deps
	Config *config.App

	DonationService       *donationsvc.Service
	ReconciliationService *reconciliationsvc.Service
	SubscriptionService   *subscriptionsvc.Service
}

// New wires the services from deps and configuration.
func New(deps *Deps, cfg *config.App) (*App, error) {
	validator, err := donationsvc.NewRequestValidator(&cfg.Donation)
	if err != nil {
		return nil, fmt.Errorf("invalid donation amount bounds: %w", err)
	}
	return &App{
		Deps:   deps,
		Config: cfg,
		DonationService: donationsvc.New(
			deps.DonationRepo,
			deps.Organizations,
			deps.PaymentGateway,
			validator,
			deps.Logger,
		),
		ReconciliationService: reconciliationsvc.New(
			deps.DonationRepo,
			deps.WebhookEventLog,
			deps.PaymentGateway,
			deps.Logger,
		),
		SubscriptionService: subscriptionsvc.New(
			deps.DonationRepo,
			deps.PaymentGateway,
			validator,
			deps.Logger,
		),
	}, nil
}
