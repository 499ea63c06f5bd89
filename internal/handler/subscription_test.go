package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subsgate/subsgate/internal/handler/dto"
)

func TestSubscriptionHandler_Status(t *testing.T) {
	store := newMemStore()
	expiry := time.Now().UTC().Add(48 * time.Hour)
	seedAccount(t, store, "alice", "open-sesame", &expiry)
	seedAccount(t, store, "bob", "open-sesame", nil)

	h := NewSubscriptionHandler(newTestService(store), testLogger())

	t.Run("active", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription?username=alice", nil)
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.SubscriptionStatusResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, 2, resp.RemainingDays)
		require.NotNil(t, resp.Expiry)
	})

	t.Run("no expiry on record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription?username=bob", nil)
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp dto.SubscriptionStatusResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.Valid)
		assert.Zero(t, resp.RemainingDays)
		assert.Nil(t, resp.Expiry)
	})

	t.Run("unknown account", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription?username=nobody", nil)
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing username", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, CodeValidationError, resp.Code)
		assert.Contains(t, resp.Details, "username")
	})
}

func postSubscription(t *testing.T, h *SubscriptionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	return rec
}

func TestSubscriptionHandler_Update(t *testing.T) {
	store := newMemStore()
	seedAccount(t, store, "alice", "open-sesame", nil)

	h := NewSubscriptionHandler(newTestService(store), testLogger())
	rec := postSubscription(t, h, `{
		"username": "alice",
		"plan": "premium",
		"duration_months": 3,
		"payment_method": "card",
		"payment_id": "txn-123"
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.UpdateSubscriptionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "premium", resp.Plan)
	assert.True(t, resp.PlanExpiry.After(time.Now().UTC().Add(80*24*time.Hour)))

	account, _ := store.get("acc-alice")
	require.NotNil(t, account.PlanExpiry)
	assert.Equal(t, "premium", string(account.Plan))
	require.Len(t, store.payments, 1)
	assert.Equal(t, "txn-123", store.payments[0].TransactionID)
}

func TestSubscriptionHandler_UpdateValidation(t *testing.T) {
	store := newMemStore()
	seedAccount(t, store, "alice", "open-sesame", nil)

	h := NewSubscriptionHandler(newTestService(store), testLogger())

	t.Run("every failing field reported", func(t *testing.T) {
		rec := postSubscription(t, h, `{
			"username": "alice",
			"plan": "platinum",
			"duration_months": 13,
			"payment_method": "cash"
		}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, CodeValidationError, resp.Code)
		assert.Contains(t, resp.Details, "plan")
		assert.Contains(t, resp.Details, "duration_months")
		assert.Contains(t, resp.Details, "payment_method")
		assert.Contains(t, resp.Details, "payment_id")
		assert.NotContains(t, resp.Details, "username")

		assert.Empty(t, store.payments)
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := postSubscription(t, h, `{
			"username": "nobody",
			"plan": "basic",
			"duration_months": 1,
			"payment_method": "paypal",
			"payment_id": "txn-9"
		}`)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, CodeNotFound, resp.Code)
	})
}
