// Package testutils builds fully wired test applications backed by in-memory
// infrastructure.
package testutils

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	infraprovider "github.com/doemais/marketplace/infra/provider"
	"github.com/doemais/marketplace/internal/fixtures"
	"github.com/doemais/marketplace/pkg/app"
	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestSecret signs the organization tokens used in tests.
const TestSecret = "test-secret"

// TestEnv is a fully wired application over in-memory infrastructure.
type TestEnv struct {
	App     *fiber.App
	Repo    *fixtures.MemoryDonationRepository
	Orgs    *fixtures.StaticOrganizationDirectory
	Events  *fixtures.MemoryWebhookEventLog
	Gateway *infraprovider.MockGateway
	Config  *config.App

	// OrgID is a pre-registered organization accepted by creation requests.
	OrgID uuid.UUID
}

// Option adjusts the test configuration before the app is built.
type Option func(*config.App)

// WithRateLimit caps requests per window.
func WithRateLimit(max int, window time.Duration) Option {
	return func(cfg *config.App) {
		cfg.RateLimit.MaxRequests = max
		cfg.RateLimit.Window = window
	}
}

// NewTestEnv builds the application with in-memory infrastructure and one
// registered organization.
func NewTestEnv(opts ...Option) *TestEnv {
	orgID := uuid.New()
	repo := fixtures.NewMemoryDonationRepository()
	orgs := &fixtures.StaticOrganizationDirectory{
		Organizations: map[uuid.UUID]string{orgID: "Casa de Apoio Esperança"},
	}
	events := &fixtures.MemoryWebhookEventLog{}
	gateway := infraprovider.NewMockGateway(infraprovider.NewMockStore())

	cfg := &config.App{}
	cfg.Jwt.Secret = TestSecret
	cfg.Donation.MinAmount = 1
	cfg.Donation.MaxAmount = 10000
	cfg.Donation.RecurringMinAmount = 5
	cfg.RateLimit.MaxRequests = 1000
	cfg.RateLimit.Window = time.Second
	for _, opt := range opts {
		opt(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(&app.Deps{
		DonationRepo:    repo,
		Organizations:   orgs,
		WebhookEventLog: events,
		PaymentGateway:  gateway,
		Logger:          logger,
	}, cfg)
	if err != nil {
		panic(err)
	}

	return &TestEnv{
		App:     webapi.SetupApp(a),
		Repo:    repo,
		Orgs:    orgs,
		Events:  events,
		Gateway: gateway,
		Config:  cfg,
		OrgID:   orgID,
	}
}

// OrgToken returns a signed bearer token for the given organization.
func OrgToken(orgID uuid.UUID, isAdmin bool) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"org_id":   orgID.String(),
		"is_admin": isAdmin,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(TestSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// MakeRequestWithApp performs an HTTP request against the app. An empty body
// sends no payload; a non-empty token is sent as a bearer credential.
func MakeRequestWithApp(app *fiber.App, method, target, body, token string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}
