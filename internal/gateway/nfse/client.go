// Package nfse is the HTTP client for the certification authority that
// turns provisional RPS records into certified service invoices.
package nfse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domainErrors "github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/fredcarvalho/notafiscal/pkg/retry"
	"github.com/sony/gobreaker/v2"
)

// Config holds the client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     uint
	RetryDelay     time.Duration
}

// Client calls the certification authority. Transport failures and 5xx
// responses are retried a bounded number of times with a fixed delay; 4xx
// responses indicate a permanent input problem and surface immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryCfg   retry.Config
	breaker    *gobreaker.CircuitBreaker[*Invoice]
}

// NewClient creates a new certification authority client.
func NewClient(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*Invoice](gobreaker.Settings{
		Name:        "nfse",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		retryCfg: retry.Config{
			MaxAttempts: maxRetries,
			Delay:       delay,
			Fixed:       true,
		},
		breaker: breaker,
	}
}

// Issue submits a service invoice for certification.
func (c *Client) Issue(ctx context.Context, companyID string, req IssueRequest) (*Invoice, error) {
	path := fmt.Sprintf("/v1/companies/%s/serviceinvoices", companyID)
	return c.call(ctx, http.MethodPost, path, req)
}

// Get re-queries an invoice by the gateway's correlation id.
func (c *Client) Get(ctx context.Context, companyID, invoiceID string) (*Invoice, error) {
	path := fmt.Sprintf("/v1/companies/%s/serviceinvoices/%s", companyID, invoiceID)
	return c.call(ctx, http.MethodGet, path, nil)
}

// Send fires the explicit send action for an invoice awaiting it.
func (c *Client) Send(ctx context.Context, companyID, invoiceID string) (*Invoice, error) {
	path := fmt.Sprintf("/v1/companies/%s/serviceinvoices/%s/send", companyID, invoiceID)
	return c.call(ctx, http.MethodPost, path, nil)
}

// Cancel requests cancellation of a certified invoice.
func (c *Client) Cancel(ctx context.Context, companyID, invoiceID, reason string) (*Invoice, error) {
	path := fmt.Sprintf("/v1/companies/%s/serviceinvoices/%s/cancel", companyID, invoiceID)
	return c.call(ctx, http.MethodPost, path, CancelRequest{Reason: reason})
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*Invoice, error) {
	return retry.DoWithResult(ctx, c.retryCfg, retryable, func() (*Invoice, error) {
		return c.breaker.Execute(func() (*Invoice, error) {
			return c.doRequest(ctx, method, path, body)
		})
	})
}

// retryable reports whether an error is worth another attempt. Rejections
// are permanent; only transport-level failures retry.
func retryable(err error) bool {
	return errors.Is(err, domainErrors.ErrGatewayUnavailable) ||
		errors.Is(err, domainErrors.ErrGatewayTimeout)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*Invoice, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%s %s: %w", method, path, domainErrors.ErrGatewayTimeout)
		}
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domainErrors.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", domainErrors.ErrMalformedResponse)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domainErrors.ErrGatewayUnavailable)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: status %d: %s: %w",
			method, path, resp.StatusCode, rejectionMessage(raw), domainErrors.ErrGatewayRejected)
	}

	inv := &Invoice{}
	if err := json.Unmarshal(raw, inv); err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domainErrors.ErrMalformedResponse)
	}
	inv.Raw = raw
	return inv, nil
}

func rejectionMessage(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		if er.Message != "" {
			return er.Message
		}
		if er.Error != "" {
			return er.Error
		}
	}
	msg := string(raw)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
