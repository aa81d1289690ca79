package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.helius.xyz/v0"

// Client manages upstream webhook subscriptions: one registration per
// watched mint so the provider starts pushing that mint's transactions
// to the inbound event feed. Every call is bounded and fallible; the
// engine runs in poller-only degraded mode when registration fails.
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	maxTries   uint
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(apiKey, webhookURL string, retries int, logger *zap.Logger) *Client {
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		webhookURL: webhookURL,
		maxTries:   uint(retries),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("helius"),
	}
}

// NewClientWithBaseURL exists for tests against a local server.
func NewClientWithBaseURL(baseURL, apiKey, webhookURL string, retries int, logger *zap.Logger) *Client {
	c := NewClient(apiKey, webhookURL, retries, logger)
	c.baseURL = baseURL
	return c
}

type createWebhookRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
}

type createWebhookResponse struct {
	WebhookID string `json:"webhookID"`
}

// RegisterWatch creates an enhanced webhook covering the mint and its
// associated addresses, retrying transient failures with exponential
// backoff. Returns the provider's subscription handle.
func (c *Client) RegisterWatch(ctx context.Context, mint string, addresses []string) (string, error) {
	accounts := append([]string{mint}, addresses...)
	payload, err := json.Marshal(createWebhookRequest{
		WebhookURL:       c.webhookURL,
		TransactionTypes: []string{"ANY"},
		AccountAddresses: accounts,
		WebhookType:      "enhanced",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook request: %w", err)
	}

	requestID := uuid.New().String()
	operation := func() (string, error) {
		return c.createWebhook(ctx, payload, requestID)
	}

	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = 500 * time.Millisecond
	backoffPolicy.MaxInterval = 5 * time.Second

	notify := func(err error, duration time.Duration) {
		c.logger.Info("Retrying webhook registration",
			zap.String("mint", mint),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	handle, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		return "", fmt.Errorf("webhook registration failed: %w", err)
	}

	c.logger.Info("Webhook registered",
		zap.String("mint", mint),
		zap.String("webhook_id", handle),
		zap.Int("accounts", len(accounts)))
	return handle, nil
}

// DeregisterWatch destroys an upstream subscription. Best effort: the
// provider garbage-collects dead webhooks eventually either way.
func (c *Client) DeregisterWatch(ctx context.Context, handle string) error {
	url := fmt.Sprintf("%s/webhooks/%s?api-key=%s", c.baseURL, handle, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("webhook delete returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) createWebhook(ctx context.Context, payload []byte, requestID string) (string, error) {
	url := fmt.Sprintf("%s/webhooks?api-key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("webhook create returned retryable status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", backoff.Permanent(fmt.Errorf("webhook create returned status %d", resp.StatusCode))
	}

	var created createWebhookResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to unmarshal webhook response: %w", err))
	}
	if created.WebhookID == "" {
		return "", backoff.Permanent(fmt.Errorf("webhook response missing webhookID"))
	}
	return created.WebhookID, nil
}
