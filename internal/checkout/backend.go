package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/notgodfather/canteenapp/internal/cart"
	"github.com/notgodfather/canteenapp/internal/order"
)

// HTTPBackend talks to the order API over its public REST surface, the same
// way the browser storefront does.
type HTTPBackend struct {
	baseURL string
	http    *http.Client
}

func NewHTTPBackend(baseURL string, httpClient *http.Client) *HTTPBackend {
	return &HTTPBackend{baseURL: baseURL, http: httpClient}
}

func (b *HTTPBackend) CreateOrder(ctx context.Context, user order.User, items []cart.Item) (order.CreateResult, error) {
	payload := struct {
		Cart []cart.Item `json:"cart"`
		User order.User  `json:"user"`
	}{Cart: items, User: user}

	var res order.CreateResult
	if err := b.post(ctx, "/api/create-order", payload, &res); err != nil {
		return order.CreateResult{}, err
	}
	return res, nil
}

func (b *HTTPBackend) VerifyOrder(ctx context.Context, orderID string) (string, error) {
	payload := map[string]string{"orderId": orderID}

	var res struct {
		Status string `json:"status"`
	}
	if err := b.post(ctx, "/api/verify-order", payload, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (b *HTTPBackend) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
