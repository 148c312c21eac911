package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/doemais/marketplace/pkg/config"
	"github.com/doemais/marketplace/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *LiveGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLiveGateway(&config.Gateway{
		ApiUrl:        server.URL,
		ApiKey:        "key_test",
		WebhookSecret: "whsec_test",
		HTTPTimeout:   timeout,
	}, testLogger())
}

func TestLiveGateway_CreatePayment(t *testing.T) {
	var gotIdempotencyKey, gotAuth string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotIdempotencyKey = r.Header.Get("X-Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "donation-1", body["external_reference"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "pay_live_1",
			"status":     "pending",
			"init_point": "https://checkout.example.com/pay_live_1",
		})
	}, time.Second)

	res, err := g.CreatePayment(context.Background(), &payment.CreatePaymentParams{
		ExternalReference: "donation-1",
		AmountCentavos:    5000,
		PayerName:         "Maria Silva",
		PayerEmail:        "maria@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_live_1", res.ID)
	assert.Equal(t, payment.StatusPending, res.Status)
	assert.Equal(t, "https://checkout.example.com/pay_live_1", res.RedirectURL)
	assert.Equal(t, "donation-1", gotIdempotencyKey)
	assert.Equal(t, "Bearer key_test", gotAuth)
}

func TestLiveGateway_CreatePayment_ProviderRejection(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "invalid card"})
	}, time.Second)

	_, err := g.CreatePayment(context.Background(), &payment.CreatePaymentParams{
		ExternalReference: "donation-1",
		AmountCentavos:    5000,
	})
	require.Error(t, err)

	var gerr *payment.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.Code)
	assert.Equal(t, "invalid card", gerr.Message)
}

func TestLiveGateway_Timeout(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 50*time.Millisecond)

	_, err := g.CreatePayment(context.Background(), &payment.CreatePaymentParams{
		ExternalReference: "donation-1",
		AmountCentavos:    5000,
	})
	require.Error(t, err)
	assert.True(t, payment.IsGatewayError(err), "timeout must surface as a gateway error")
}

func TestLiveGateway_CancelSubscription(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/subscriptions/sub_1/cancel", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "sub_1", "status": "cancelled"})
	}, time.Second)

	res, err := g.CancelSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, res.Status)
}

func TestLiveGateway_GetSubscriptionStatus(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                 "sub_1",
			"status":             "approved",
			"transaction_amount": 1000,
			"frequency":          "monthly",
			"next_billing_date":  "2026-10-01",
		})
	}, time.Second)

	status, err := g.GetSubscriptionStatus(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusApproved, status.Status)
	assert.Equal(t, int64(1000), status.AmountCentavos)
	assert.Equal(t, 2026, status.NextBillingDate.Year())
}

func TestLiveGateway_ParseWebhook_Signature(t *testing.T) {
	g := NewLiveGateway(&config.Gateway{
		WebhookSecret: "whsec_test",
		HTTPTimeout:   time.Second,
	}, testLogger())

	payload := []byte(`{"type":"payment","data":{"id":"pay_1","status":"approved"}}`)
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	event, err := g.ParseWebhook(payload, signature)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", event.Reference)
	assert.Equal(t, payment.StatusApproved, event.Status)

	_, err = g.ParseWebhook(payload, "bad-signature")
	require.Error(t, err)
}
