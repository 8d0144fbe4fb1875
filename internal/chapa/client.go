// Package chapa is a minimal client for the Chapa hosted-checkout REST API.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"barbershop/internal/metrics"
)

const (
	DefaultBaseURL       = "https://api.chapa.co/v1"
	DefaultVerifyTimeout = 10 * time.Second

	// StatusSuccess is the only transaction status treated as a completed charge.
	StatusSuccess = "success"
)

const timeoutMessage = "Payment verification timeout - please check your booking status later"

type Customization struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type InitializeRequest struct {
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Email         string         `json:"email"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	PhoneNumber   string         `json:"phone_number"`
	TxRef         string         `json:"tx_ref"`
	CallbackURL   string         `json:"callback_url"`
	ReturnURL     string         `json:"return_url"`
	Customization *Customization `json:"customization,omitempty"`
}

type InitializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type Transaction struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount"`
	Charge    float64 `json:"charge"`
	Mode      string  `json:"mode"`
	Method    string  `json:"method"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	Reference string  `json:"reference"`
	TxRef     string  `json:"tx_ref"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type VerifyResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

// Succeeded reports whether the verified transaction was charged.
func (r *VerifyResponse) Succeeded() bool {
	return r.Data.Status == StatusSuccess
}

// Error is returned for transport failures, timeouts and non-2xx responses.
// Message carries the gateway's own message when one was provided.
type Error struct {
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL       string
	secretKey     string
	httpClient    *http.Client
	verifyTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithVerifyTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.verifyTimeout = d
		}
	}
}

func NewClient(baseURL, secretKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     secretKey,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		verifyTimeout: DefaultVerifyTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize creates a hosted checkout session and returns its redirect URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode initialize request: %w", err)
	}

	var resp InitializeResponse
	if err := c.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		if err.Message == "" {
			err.Message = "Failed to initialize payment"
		}
		return nil, err
	}
	if resp.Data.CheckoutURL == "" {
		return nil, &Error{StatusCode: http.StatusOK, Message: "payment gateway returned no checkout URL"}
	}
	return &resp, nil
}

// Verify looks up a transaction by reference. The call is bounded by the
// client's verify timeout in addition to any deadline already on ctx.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	var resp VerifyResponse
	if err := c.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(txRef), nil, &resp); err != nil {
		if err.Timeout {
			err.Message = timeoutMessage
		} else if err.Message == "" {
			err.Message = "Failed to verify payment"
		}
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, out interface{}) *Error {
	start := time.Now()
	defer func() {
		metrics.ObserveGatewayRequest(operation, time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Timeout: isTimeout(err), Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &Error{StatusCode: res.StatusCode, Timeout: isTimeout(err), Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &Error{StatusCode: res.StatusCode, Message: gatewayMessage(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{StatusCode: res.StatusCode, Message: fmt.Sprintf("decode %s response: %v", operation, err), Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// gatewayMessage extracts "message" from an error body. Chapa sends either a
// string or an object of field errors there.
func gatewayMessage(raw []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Message) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var msg string
	if err := json.Unmarshal(envelope.Message, &msg); err == nil {
		return msg
	}
	return string(envelope.Message)
}
