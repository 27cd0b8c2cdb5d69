// Package wallet implements the settlement collaborator: an HTTP client for
// the family wallet service and an in-memory settler for local runs and tests.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sats-family/chore-hub/internal/domain/settlement"
	"github.com/sats-family/chore-hub/pkg/circuitbreaker"
	"github.com/sats-family/chore-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the wallet API client.
type ClientConfig struct {
	// BaseURL is the wallet service base URL, e.g. https://wallet.local
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// PaymentRequestDTO is the body of POST /api/v1/payments.
type PaymentRequestDTO struct {
	ChildID        int64  `json:"child_id"`
	AmountSats     int64  `json:"amount_sats"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotency_key"`
	Memo           string `json:"memo,omitempty"`
}

// PaymentResponseDTO is returned by the wallet on success. A repeated key
// returns the original payment.
type PaymentResponseDTO struct {
	PaymentID string    `json:"payment_id"`
	Status    string    `json:"status"`
	SettledAt time.Time `json:"settled_at"`
}

// APIErrorDTO is the error body of the wallet service.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wallet api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("wallet api error %d: %s", e.StatusCode, e.Message)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client settles payouts through the wallet HTTP API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
}

var _ settlement.Settler = (*Client)(nil)

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetrier replaces the retry policy.
func WithRetrier(r *retry.Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(b *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a wallet client.
func NewClient(config ClientConfig, opts ...Option) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	logger := config.Logger.With("component", "wallet")
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		retrier: retry.WalletRetrier(retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("wallet call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		})),
		breaker: circuitbreaker.WalletBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settle sends the payment. Every attempt carries the same idempotency key,
// so a retry after a lost response cannot pay twice.
func (c *Client) Settle(ctx context.Context, req settlement.Request) (*settlement.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := PaymentRequestDTO{
		ChildID:        req.ChildID.Int64(),
		AmountSats:     req.Sats.Int64(),
		Reason:         string(req.Reason),
		IdempotencyKey: req.IdempotencyKey,
		Memo:           req.Memo,
	}

	var resp PaymentResponseDTO
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.post(ctx, "/api/v1/payments", req.IdempotencyKey, body, &resp)
		})
	})
	if err != nil {
		c.logger.Error("settlement failed",
			"idempotency_key", req.IdempotencyKey,
			"sats", req.Sats.Int64(),
			"error", err,
		)
		return nil, settlement.Failed("Settle", err)
	}

	settledAt := resp.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}
	c.logger.Info("settled",
		"idempotency_key", req.IdempotencyKey,
		"payment_id", resp.PaymentID,
		"sats", req.Sats.Int64(),
	)
	return &settlement.Receipt{Reference: resp.PaymentID, SettledAt: settledAt}, nil
}

// Ping checks that the wallet service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wallet health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}

// post performs one attempt. Transport errors, 429 and 5xx are retryable;
// other 4xx responses are permanent.
func (c *Client) post(ctx context.Context, path, idempotencyKey string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return retry.Permanent(err)
		}
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var dto APIErrorDTO
		if json.Unmarshal(respBody, &dto) == nil && dto.Message != "" {
			apiErr.Code = dto.Code
			apiErr.Message = dto.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.Retryable(apiErr)
		}
		return retry.Permanent(apiErr)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}
