// Package pix is the HTTP client for the instant-payment provider that
// registers collectible charges and reports their settlement.
package pix

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

// Customer identifies the payer on the provider side.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	TaxID string `json:"taxID,omitempty"`
}

// ChargeRequest is the body of the charge creation call. Value is in cents.
type ChargeRequest struct {
	CorrelationID string    `json:"correlationID"`
	Value         int64     `json:"value"`
	Comment       string    `json:"comment,omitempty"`
	Customer      *Customer `json:"customer,omitempty"`
	ExpiresIn     int64     `json:"expiresIn,omitempty"` // seconds
}

// Charge is the provider's view of a charge. Raw carries the verbatim
// response body for audit.
type Charge struct {
	CorrelationID string `json:"correlationID"`
	Status        string `json:"status"`
	BRCode        string `json:"brCode"`
	QRCodeImage   string `json:"qrCodeImage"`

	Raw []byte `json:"-"`
}

// chargeEnvelope tolerates providers that nest the charge object.
type chargeEnvelope struct {
	Charge *Charge `json:"charge"`

	CorrelationID string `json:"correlationID"`
	Status        string `json:"status"`
	BRCode        string `json:"brCode"`
	QRCodeImage   string `json:"qrCodeImage"`
}

// Config holds the client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     uint
	RetryDelay     time.Duration
}

// Client calls the instant-payment provider. The retry policy mirrors the
// certification gateway: bounded fixed-delay retries for transport
// failures, no retries for rejections.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryCfg   retry.Config
	breaker    *gobreaker.CircuitBreaker[*Charge]
}

// NewClient creates a new instant-payment client.
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

	breaker := gobreaker.NewCircuitBreaker[*Charge](gobreaker.Settings{
		Name:        "pix",
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

// CreateCharge registers a charge with the provider.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	return c.call(ctx, http.MethodPost, "/charge", req)
}

// GetCharge queries a charge by its correlation id.
func (c *Client) GetCharge(ctx context.Context, correlationID string) (*Charge, error) {
	return c.call(ctx, http.MethodGet, "/charge/"+correlationID, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*Charge, error) {
	return retry.DoWithResult(ctx, c.retryCfg, retryable, func() (*Charge, error) {
		return c.breaker.Execute(func() (*Charge, error) {
			return c.doRequest(ctx, method, path, body)
		})
	})
}

func retryable(err error) bool {
	return errors.Is(err, domainErrors.ErrGatewayUnavailable) ||
		errors.Is(err, domainErrors.ErrGatewayTimeout)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*Charge, error) {
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
		return nil, fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domainErrors.ErrGatewayRejected)
	}

	var env chargeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, domainErrors.ErrMalformedResponse)
	}

	ch := env.Charge
	if ch == nil {
		ch = &Charge{
			CorrelationID: env.CorrelationID,
			Status:        env.Status,
			BRCode:        env.BRCode,
			QRCodeImage:   env.QRCodeImage,
		}
	}
	if ch.BRCode == "" && ch.Status == "" {
		return nil, fmt.Errorf("%s %s: empty charge: %w", method, path, domainErrors.ErrMalformedResponse)
	}
	ch.Raw = raw
	return ch, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
