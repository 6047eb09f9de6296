package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/notgodfather/canteenapp/internal/cart"
	"github.com/notgodfather/canteenapp/internal/order"
	"github.com/notgodfather/canteenapp/internal/payment"
)

// OrderService is the slice of the order service the handlers need.
type OrderService interface {
	CreateOrder(ctx context.Context, user order.User, items []cart.Item) (order.CreateResult, error)
	VerifyOrder(ctx context.Context, orderID string) (payment.Status, error)
	HandleWebhook(ctx context.Context, payload []byte) error
}

type OrderHandler struct {
	svc    OrderService
	repo   order.Repository
	logger *log.Logger
}

func NewOrderHandler(svc OrderService, repo order.Repository, logger *log.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, repo: repo, logger: logger}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cart []cart.Item `json:"cart"`
		User order.User  `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.svc.CreateOrder(ctx, body.User, body.Cart)
	if err != nil {
		h.writeCreateOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) writeCreateOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrMissingUser):
		writeError(w, http.StatusBadRequest, "Missing user")
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, cart.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, payment.ErrMissingSessionToken):
		h.logger.Printf("create order error: %v", err)
		writeError(w, http.StatusInternalServerError, "No payment_session_id from Cashfree")
	default:
		h.logger.Printf("create order error: %v", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Create order failed", gatewayDetails(err))
	}
}

func (h *OrderHandler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := h.svc.VerifyOrder(ctx, body.OrderID)
	if err != nil {
		h.logger.Printf("verify order error: %v", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Verify failed", gatewayDetails(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Webhook accepts asynchronous gateway events. The gateway retries on
// non-2xx, so only genuine internal errors produce a 500; payload validity
// never does.
func (h *OrderHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("webhook read error: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.HandleWebhook(ctx, payload); err != nil {
		h.logger.Printf("webhook error: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *OrderHandler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Printf("list orders error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// gatewayDetails extracts the diagnostic payload to surface on 500s: the raw
// gateway error body when there is one, the error text otherwise. Stack
// traces and credentials never end up here.
func gatewayDetails(err error) any {
	var rejected *payment.RejectedError
	if errors.As(err, &rejected) {
		return json.RawMessage(rejected.Details)
	}
	return err.Error()
}
