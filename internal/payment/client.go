package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	sandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	productionBaseURL = "https://api.cashfree.com/pg"

	// DefaultAPIVersion is the pinned Cashfree API version; it must match the
	// version enabled on the merchant account.
	DefaultAPIVersion = "2025-01-01"
)

var (
	// ErrUnavailable means the gateway could not be reached at all (transport
	// error or timeout). Potentially transient; never retried automatically.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrMissingSessionToken means the gateway accepted the order but the
	// response had no payment_session_id. That violates the API contract, so
	// it is treated as a fatal integration bug rather than a payment failure.
	ErrMissingSessionToken = errors.New("no payment_session_id from gateway")
)

// RejectedError carries a structured application error returned by the
// gateway (non-2xx response). Details holds the raw response body so it can
// be surfaced for diagnosis.
type RejectedError struct {
	StatusCode int
	Details    json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request: status %d: %s", e.StatusCode, e.Details)
}

// Config selects the gateway environment and carries the merchant
// credentials. BaseURL is normally derived from Mode; tests override it.
type Config struct {
	Mode         string // "sandbox" or "production"
	ClientID     string
	ClientSecret string
	APIVersion   string
	BaseURL      string
}

// Client is a stateless wrapper around the Cashfree PG REST API. Each call is
// a single network request; nothing is cached between calls.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a gateway client. httpClient must carry an explicit
// timeout; a timed-out call surfaces as ErrUnavailable.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.BaseURL == "" {
		if cfg.Mode == "production" {
			cfg.BaseURL = productionBaseURL
		} else {
			cfg.BaseURL = sandboxBaseURL
		}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Mode reports the environment the client talks to ("sandbox" or
// "production"); the storefront needs it to open the hosted checkout in the
// matching mode.
func (c *Client) Mode() string {
	if c.cfg.Mode == "production" {
		return "production"
	}
	return "sandbox"
}

// Customer identifies the paying user on the gateway order.
type Customer struct {
	ID    string `json:"customer_id"`
	Name  string `json:"customer_name"`
	Email string `json:"customer_email"`
	Phone string `json:"customer_phone"`
}

// CreateOrderRequest is the input for CreateOrder. ReturnURL may contain the
// literal "{order_id}" placeholder, which the gateway substitutes itself.
type CreateOrderRequest struct {
	OrderID   string
	Amount    float64
	Currency  string
	Customer  Customer
	Note      string
	ReturnURL string
	NotifyURL string
}

// CreateOrderResult is what the storefront needs to open hosted checkout.
type CreateOrderResult struct {
	PaymentSessionID string
	CFOrderID        string
}

type createOrderPayload struct {
	OrderID         string    `json:"order_id"`
	OrderAmount     float64   `json:"order_amount"`
	OrderCurrency   string    `json:"order_currency"`
	CustomerDetails Customer  `json:"customer_details"`
	OrderNote       string    `json:"order_note,omitempty"`
	OrderMeta       orderMeta `json:"order_meta"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

// CreateOrder registers a new order with the gateway and returns the session
// token for hosted checkout.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResult, error) {
	payload := createOrderPayload{
		OrderID:         req.OrderID,
		OrderAmount:     req.Amount,
		OrderCurrency:   req.Currency,
		CustomerDetails: req.Customer,
		OrderNote:       req.Note,
		OrderMeta: orderMeta{
			ReturnURL: req.ReturnURL,
			NotifyURL: req.NotifyURL,
		},
	}

	body, err := c.do(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return CreateOrderResult{}, err
	}

	var resp struct {
		PaymentSessionID string `json:"payment_session_id"`
		CFOrderID        string `json:"cf_order_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return CreateOrderResult{}, fmt.Errorf("decode create order response: %w", err)
	}
	if resp.PaymentSessionID == "" {
		return CreateOrderResult{}, ErrMissingSessionToken
	}

	return CreateOrderResult{
		PaymentSessionID: resp.PaymentSessionID,
		CFOrderID:        resp.CFOrderID,
	}, nil
}

// FetchOrderStatus reads the authoritative order status from the gateway.
// An absent or unrecognized status maps to StatusUnknown, never to an error.
func (c *Client) FetchOrderStatus(ctx context.Context, orderID string) (Status, error) {
	body, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil)
	if err != nil {
		return StatusUnknown, err
	}

	var resp struct {
		OrderStatus string `json:"order_status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return StatusUnknown, fmt.Errorf("decode order status response: %w", err)
	}

	return ParseStatus(resp.OrderStatus), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-client-secret", c.cfg.ClientSecret)
	req.Header.Set("x-api-version", c.cfg.APIVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Details: body}
	}

	return body, nil
}
