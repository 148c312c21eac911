package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/pkg/provider/payment"
)

// LiveGateway talks to the payment provider's REST API. Every call carries a
// bounded timeout through the underlying client; a timeout is reported as a
// gateway error like any other transport failure.
type LiveGateway struct {
	client  *http.Client
	baseURL string
	apiKey  string
	secret  string
	logger  *slog.Logger
}

// NewLiveGateway creates a gateway over the provider REST API.
func NewLiveGateway(cfg *config.Gateway, logger *slog.Logger) *LiveGateway {
	return &LiveGateway{
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL: cfg.ApiUrl,
		apiKey:  cfg.ApiKey,
		secret:  cfg.WebhookSecret,
		logger:  logger,
	}
}

// providerResponse is the provider's response shape for payment and
// subscription operations.
type providerResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	InitPoint string `json:"init_point"`
	Amount    int64  `json:"transaction_amount"`
	Frequency string `json:"frequency"`
	NextBill  string `json:"next_billing_date"`
	Message   string `json:"message"`
}

// CreatePayment creates a one-off charge at the provider.
func (g *LiveGateway) CreatePayment(
	ctx context.Context,
	params *payment.CreatePaymentParams,
) (*payment.PaymentResult, error) {
	body := map[string]any{
		"transaction_amount": params.AmountCentavos,
		"description":        params.Description,
		"external_reference": params.ExternalReference,
		"payer": map[string]string{
			"name":  params.PayerName,
			"email": params.PayerEmail,
		},
	}
	resp, err := g.post(ctx, "/payments", params.ExternalReference, body)
	if err != nil {
		return nil, err
	}
	return &payment.PaymentResult{
		ID:          resp.ID,
		Status:      normalizeStatus(resp.Status),
		RedirectURL: resp.InitPoint,
	}, nil
}

// CreateSubscription creates a recurring charge at the provider.
func (g *LiveGateway) CreateSubscription(
	ctx context.Context,
	params *payment.CreateSubscriptionParams,
) (*payment.SubscriptionResult, error) {
	body := map[string]any{
		"transaction_amount": params.AmountCentavos,
		"frequency":          params.Frequency,
		"description":        params.Description,
		"external_reference": params.ExternalReference,
		"payer": map[string]string{
			"name":  params.PayerName,
			"email": params.PayerEmail,
		},
	}
	resp, err := g.post(ctx, "/subscriptions", params.ExternalReference, body)
	if err != nil {
		return nil, err
	}
	return &payment.SubscriptionResult{
		ID:          resp.ID,
		Status:      normalizeStatus(resp.Status),
		RedirectURL: resp.InitPoint,
	}, nil
}

// GetSubscriptionStatus queries the provider for a subscription.
func (g *LiveGateway) GetSubscriptionStatus(
	ctx context.Context,
	subscriptionID string,
) (*payment.SubscriptionStatus, error) {
	resp, err := g.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, "", nil)
	if err != nil {
		return nil, err
	}
	status := &payment.SubscriptionStatus{
		ID:             resp.ID,
		Status:         normalizeStatus(resp.Status),
		AmountCentavos: resp.Amount,
		Frequency:      resp.Frequency,
	}
	if resp.NextBill != "" {
		if next, perr := parseProviderTime(resp.NextBill); perr == nil {
			status.NextBillingDate = next
		}
	}
	return status, nil
}

// UpdateSubscription changes the billed amount of a subscription.
func (g *LiveGateway) UpdateSubscription(
	ctx context.Context,
	subscriptionID string,
	params *payment.UpdateSubscriptionParams,
) (*payment.SubscriptionResult, error) {
	body := map[string]any{"transaction_amount": params.AmountCentavos}
	resp, err := g.do(ctx, http.MethodPut, "/subscriptions/"+subscriptionID, "", body)
	if err != nil {
		return nil, err
	}
	return &payment.SubscriptionResult{
		ID:     resp.ID,
		Status: normalizeStatus(resp.Status),
	}, nil
}

// CancelSubscription cancels a subscription at the provider.
func (g *LiveGateway) CancelSubscription(
	ctx context.Context,
	subscriptionID string,
) (*payment.SubscriptionResult, error) {
	resp, err := g.do(ctx, http.MethodPut, "/subscriptions/"+subscriptionID+"/cancel", "", nil)
	if err != nil {
		return nil, err
	}
	return &payment.SubscriptionResult{
		ID:     resp.ID,
		Status: normalizeStatus(resp.Status),
	}, nil
}

// ParseWebhook verifies the payload signature and decodes the notification.
func (g *LiveGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if g.secret != "" {
		mac := hmac.New(sha256.New, []byte(g.secret))
		mac.Write(payload)
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(signature)) {
			return nil, &payment.Error{Message: "invalid webhook signature"}
		}
	}
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, &payment.Error{Message: "malformed webhook payload", Err: err}
	}
	return body.toEvent()
}

func (g *LiveGateway) post(
	ctx context.Context,
	path, idempotencyKey string,
	body map[string]any,
) (*providerResponse, error) {
	return g.do(ctx, http.MethodPost, path, idempotencyKey, body)
}

func (g *LiveGateway) do(
	ctx context.Context,
	method, path, idempotencyKey string,
	body map[string]any,
) (*providerResponse, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("gateway request failed", "method", method, "path", path, "error", err)
		return nil, &payment.Error{Message: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close() //nolint: errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &payment.Error{Message: "failed to read gateway response", Err: err}
	}

	var decoded providerResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, &payment.Error{
				Code:    resp.StatusCode,
				Message: "malformed gateway response",
				Err:     err,
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		g.logger.Error("gateway rejected request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", msg,
		)
		return nil, &payment.Error{Code: resp.StatusCode, Message: msg}
	}

	return &decoded, nil
}
