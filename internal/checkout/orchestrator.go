package checkout

import (
	"context"
	"fmt"
	"log"

	"github.com/notgodfather/canteenapp/internal/cart"
	"github.com/notgodfather/canteenapp/internal/order"
	"github.com/notgodfather/canteenapp/internal/payment"
)

// Backend is the storefront's view of the order API.
type Backend interface {
	CreateOrder(ctx context.Context, user order.User, items []cart.Item) (order.CreateResult, error)
	VerifyOrder(ctx context.Context, orderID string) (string, error)
}

// Surface opens the gateway's hosted checkout with a session token and
// blocks until the user completes or abandons payment. Nothing it returns is
// trusted; the flow always re-verifies server-side afterwards.
type Surface interface {
	Open(ctx context.Context, sessionID, mode string) error
}

// Store persists the paid order once verification succeeds. The production
// implementation delegates to the server-side repository, which keys on the
// gateway order id with upsert semantics, so racing with the webhook path
// cannot double-write.
type Store interface {
	SavePaidOrder(ctx context.Context, orderID string) error
}

// Result is what the user sees at the end of the flow. ClearCart tells the
// caller to empty the cart; it is only set when the order was actually
// placed.
type Result struct {
	Placed    bool
	ClearCart bool
	OrderID   string
	Status    string
	Message   string
}

// Orchestrator drives the end-to-end checkout: create order, open hosted
// checkout, verify, persist. Every step's failure is rendered as a message
// and no step is retried automatically.
type Orchestrator struct {
	backend Backend
	surface Surface
	store   Store
	logger  *log.Logger
}

func New(backend Backend, surface Surface, store Store, logger *log.Logger) *Orchestrator {
	return &Orchestrator{backend: backend, surface: surface, store: store, logger: logger}
}

func (o *Orchestrator) PlaceOrder(ctx context.Context, user order.User, items []cart.Item) Result {
	if user.UID == "" {
		return Result{Message: "Please login first"}
	}
	if len(items) == 0 {
		return Result{Message: "Cart is empty"}
	}

	created, err := o.backend.CreateOrder(ctx, user, items)
	if err != nil {
		o.logger.Printf("create order: %v", err)
		return Result{Message: "Create order failed"}
	}

	if err := o.surface.Open(ctx, created.PaymentSessionID, created.EnvMode); err != nil {
		o.logger.Printf("open checkout: %v", err)
		return Result{OrderID: created.OrderID, Message: "Could not open payment window"}
	}

	raw, err := o.backend.VerifyOrder(ctx, created.OrderID)
	if err != nil {
		o.logger.Printf("verify order: %v", err)
		return Result{OrderID: created.OrderID, Message: "Verify failed"}
	}

	if !payment.IsSuccess(raw) {
		return Result{
			OrderID: created.OrderID,
			Status:  raw,
			Message: fmt.Sprintf("Payment status: %s. Order not placed.", raw),
		}
	}

	if err := o.store.SavePaidOrder(ctx, created.OrderID); err != nil {
		// Money has moved but the record did not persist; this must read
		// differently from a payment failure.
		o.logger.Printf("persist paid order %s: %v", created.OrderID, err)
		return Result{
			OrderID: created.OrderID,
			Status:  raw,
			Message: "Payment received, but saving your order failed. Please contact the canteen.",
		}
	}

	return Result{
		Placed:    true,
		ClearCart: true,
		OrderID:   created.OrderID,
		Status:    raw,
		Message:   "Order placed! Thank you.",
	}
}
