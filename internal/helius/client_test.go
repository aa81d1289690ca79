package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegisterWatch_SendsEnhancedWebhookRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/webhooks", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var req createWebhookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/rug-alert", req.WebhookURL)
		assert.Equal(t, []string{"ANY"}, req.TransactionTypes)
		assert.Equal(t, "enhanced", req.WebhookType)
		assert.Equal(t, []string{"mint-a", "pool-1", "creator-1"}, req.AccountAddresses,
			"the mint itself leads the account list")

		fmt.Fprint(w, `{"webhookID":"hook-123"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "test-key", "https://example.com/rug-alert", 3, zaptest.NewLogger(t))
	handle, err := c.RegisterWatch(context.Background(), "mint-a", []string{"pool-1", "creator-1"})
	require.NoError(t, err)
	assert.Equal(t, "hook-123", handle)
}

func TestRegisterWatch_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"webhookID":"hook-after-retry"}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 5, zaptest.NewLogger(t))
	handle, err := c.RegisterWatch(context.Background(), "mint-a", nil)
	require.NoError(t, err)
	assert.Equal(t, "hook-after-retry", handle)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRegisterWatch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 5, zaptest.NewLogger(t))
	_, err := c.RegisterWatch(context.Background(), "mint-a", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "a 4xx must not be retried")
}

func TestRegisterWatch_GivesUpAfterMaxTries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 2, zaptest.NewLogger(t))
	_, err := c.RegisterWatch(context.Background(), "mint-a", nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegisterWatch_MissingWebhookIDIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 3, zaptest.NewLogger(t))
	_, err := c.RegisterWatch(context.Background(), "mint-a", nil)
	assert.Error(t, err)
}

func TestDeregisterWatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/webhooks/hook-123", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 1, zaptest.NewLogger(t))
	assert.NoError(t, c.DeregisterWatch(context.Background(), "hook-123"))
}

func TestDeregisterWatch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "k", "https://example.com/hook", 1, zaptest.NewLogger(t))
	assert.Error(t, c.DeregisterWatch(context.Background(), "hook-123"))
}
