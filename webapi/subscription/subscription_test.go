package subscription_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/doemais/marketplace/webapi/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createApprovedSubscription drives a recurring donation through creation and
// webhook approval, returning its donation id.
func createApprovedSubscription(t *testing.T, env *testutils.TestEnv) string {
	t.Helper()
	body := fmt.Sprintf(
		`{"organizationId":%q,"amount":25,"frequency":"monthly","donorName":"João Pereira","donorEmail":"joao@example.com"}`,
		env.OrgID,
	)
	resp := testutils.MakeRequestWithApp(env.App, http.MethodPost, "/donations/recurring", body, "")
	defer resp.Body.Close() //nolint: errcheck
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var envelope struct {
		Data struct {
			DonationID     string `json:"donationId"`
			SubscriptionID string `json:"subscriptionId"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	webhookBody := fmt.Sprintf(
		`{"type":"subscription","action":"subscription.updated","data":{"id":%q,"status":"approved"}}`,
		envelope.Data.SubscriptionID,
	)
	webhookResp := testutils.MakeRequestWithApp(env.App, http.MethodPost,
		"/webhooks/payment", webhookBody, "")
	webhookResp.Body.Close() //nolint: errcheck

	return envelope.Data.DonationID
}

func TestCancelSubscription(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodDelete, "/subscriptions/"+id,
		"", testutils.OrgToken(env.OrgID, false))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getResp := testutils.MakeRequestWithApp(env.App, http.MethodGet, "/donations/"+id, "", "")
	defer getResp.Body.Close() //nolint: errcheck
	var envelope struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&envelope))
	assert.Equal(t, "cancelled", envelope.Data.Status)
}

func TestCancelSubscription_NoToken(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodDelete, "/subscriptions/"+id, "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCancelSubscription_OtherOrganizationForbidden(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodDelete, "/subscriptions/"+id,
		"", testutils.OrgToken(uuid.New(), false))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCancelSubscription_AdminAllowed(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodDelete, "/subscriptions/"+id,
		"", testutils.OrgToken(uuid.New(), true))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSubscriptionStatus(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodGet, "/subscriptions/"+id,
		"", testutils.OrgToken(env.OrgID, false))
	defer resp.Body.Close() //nolint: errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Status    string  `json:"status"`
			Amount    float64 `json:"amount"`
			Frequency string  `json:"frequency"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "pending", envelope.Data.Status)
	assert.Equal(t, 25.0, envelope.Data.Amount)
	assert.Equal(t, "monthly", envelope.Data.Frequency)
}

func TestUpdateSubscriptionAmount(t *testing.T) {
	env := testutils.NewTestEnv()
	id := createApprovedSubscription(t, env)

	resp := testutils.MakeRequestWithApp(env.App, http.MethodPatch, "/subscriptions/"+id,
		`{"amount":40}`, testutils.OrgToken(env.OrgID, false))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	statusResp := testutils.MakeRequestWithApp(env.App, http.MethodGet, "/subscriptions/"+id,
		"", testutils.OrgToken(env.OrgID, false))
	defer statusResp.Body.Close() //nolint: errcheck
	var envelope struct {
		Data struct {
			Amount float64 `json:"amount"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&envelope))
	assert.Equal(t, 40.0, envelope.Data.Amount)

	// The local record keeps the original pledge.
	getResp := testutils.MakeRequestWithApp(env.App, http.MethodGet, "/donations/"+id, "", "")
	defer getResp.Body.Close() //nolint: errcheck
	var donation struct {
		Data struct {
			Amount float64 `json:"amount"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&donation))
	assert.Equal(t, 25.0, donation.Data.Amount)
}

func TestSubscription_InvalidID(t *testing.T) {
	env := testutils.NewTestEnv()

	resp := testutils.MakeRequestWithApp(env.App, http.MethodGet, "/subscriptions/not-a-uuid",
		"", testutils.OrgToken(env.OrgID, false))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelSubscription_UnknownID(t *testing.T) {
	env := testutils.NewTestEnv()

	resp := testutils.MakeRequestWithApp(env.App, http.MethodDelete,
		"/subscriptions/"+uuid.NewString(), "", testutils.OrgToken(env.OrgID, false))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
