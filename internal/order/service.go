package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/notgodfather/canteenapp/internal/cart"
	"github.com/notgodfather/canteenapp/internal/payment"
)

// Currency is fixed; multi-currency is out of scope.
const Currency = "INR"

var (
	ErrMissingUser = errors.New("missing user")
	ErrEmptyCart   = errors.New("cart is empty")
)

// Gateway is the slice of the payment client the service needs.
type Gateway interface {
	CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (payment.CreateOrderResult, error)
	FetchOrderStatus(ctx context.Context, orderID string) (payment.Status, error)
	Mode() string
}

// PaidPublisher notifies the kitchen when an order transitions to paid.
type PaidPublisher interface {
	PublishOrderPaid(ctx context.Context, o *Order) error
}

// CreateResult is handed back to the storefront so it can open hosted
// checkout with the session token in the right environment.
type CreateResult struct {
	OrderID          string  `json:"orderId"`
	CFOrderID        string  `json:"cfOrderId"`
	PaymentSessionID string  `json:"paymentSessionId"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	EnvMode          string  `json:"envMode"`
}

// Service orchestrates the order lifecycle: server-side amount computation,
// gateway order creation, status verification, and webhook reconciliation.
// The service is the only writer of order records; clients never compose
// their own (see DESIGN.md on the dual-write question).
type Service struct {
	gateway       Gateway
	repo          Repository
	pub           PaidPublisher
	publicBaseURL string
	logger        *log.Logger
}

// NewService wires the order service. pub may be nil when no broker is
// configured; paid orders are then only persisted, not announced.
func NewService(gateway Gateway, repo Repository, pub PaidPublisher, publicBaseURL string, logger *log.Logger) *Service {
	return &Service{
		gateway:       gateway,
		repo:          repo,
		pub:           pub,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// CreateOrder validates the cart, computes the amount server-side, records a
// pending order, and registers it with the gateway. The pending row is
// written first so a webhook arriving immediately after payment always finds
// the order. Gateway failures are not retried: payment creation must never be
// silently duplicated.
func (s *Service) CreateOrder(ctx context.Context, user User, items []cart.Item) (CreateResult, error) {
	if user.UID == "" {
		return CreateResult{}, ErrMissingUser
	}
	if len(items) == 0 {
		return CreateResult{}, ErrEmptyCart
	}

	amount, err := cart.ComputeAmount(items)
	if err != nil {
		return CreateResult{}, err
	}
	if amount <= 0 {
		return CreateResult{}, cart.ErrInvalidAmount
	}

	orderID := payment.NewOrderID()

	o := &Order{
		UserID:    user.UID,
		OrderID:   orderID,
		Items:     items,
		Amount:    amount,
		Currency:  Currency,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return CreateResult{}, fmt.Errorf("record pending order: %w", err)
	}

	res, err := s.gateway.CreateOrder(ctx, payment.CreateOrderRequest{
		OrderID:  orderID,
		Amount:   amount,
		Currency: Currency,
		Customer: payment.Customer{
			ID:    user.UID,
			Name:  orDefault(user.DisplayName, "Guest"),
			Email: orDefault(user.Email, "noemail@example.com"),
			Phone: orDefault(user.PhoneNumber, "9999999999"),
		},
		Note: "College canteen order",
		// The gateway substitutes {order_id} itself.
		ReturnURL: s.publicBaseURL + "/pg/return?order_id={order_id}",
		NotifyURL: s.publicBaseURL + "/api/cashfree/webhook",
	})
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		OrderID:          orderID,
		CFOrderID:        res.CFOrderID,
		PaymentSessionID: res.PaymentSessionID,
		Amount:           amount,
		Currency:         Currency,
		EnvMode:          s.gateway.Mode(),
	}, nil
}

// VerifyOrder returns the gateway's current status for the order, verbatim.
// It never writes; reconciliation happens on the webhook path.
func (s *Service) VerifyOrder(ctx context.Context, orderID string) (payment.Status, error) {
	return s.gateway.FetchOrderStatus(ctx, orderID)
}

// webhookEvent is the slice of the Cashfree event envelope we act on.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// HandleWebhook processes an asynchronous gateway event. Terminal success for
// a known order marks it paid idempotently; the kitchen event is published
// only when this call actually performed the transition, so replays and the
// verify path cannot double-announce. Everything else is a logged no-op.
//
// TODO: verify the webhook signature (x-webhook-signature) before trusting
// events; until then notify_url must not be the only source of truth.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte) error {
	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		// The gateway retries on non-2xx; a retry of an unparseable payload
		// can never succeed, so acknowledge and drop it.
		s.logger.Printf("webhook: ignoring unparseable payload: %v", err)
		return nil
	}

	orderID := evt.Data.Order.OrderID
	status := evt.Data.Payment.PaymentStatus
	if orderID == "" || !payment.IsSuccess(status) {
		return nil
	}

	transitioned, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !transitioned {
		// unknown order or already paid
		return nil
	}

	s.logger.Printf("webhook: order %s marked paid", orderID)

	if s.pub == nil {
		return nil
	}
	o, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load paid order: %w", err)
	}
	if o == nil {
		return nil
	}
	if err := s.pub.PublishOrderPaid(ctx, o); err != nil {
		return fmt.Errorf("publish order.paid: %w", err)
	}
	return nil
}

// SavePaidOrder is the server-side persistence used by the checkout
// orchestrator after a successful verification. It keys on the gateway order
// id with upsert semantics, so racing with the webhook path cannot produce
// duplicates.
func (s *Service) SavePaidOrder(ctx context.Context, orderID string) error {
	if _, err := s.repo.MarkPaid(ctx, orderID); err != nil {
		return fmt.Errorf("persist paid order: %w", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
