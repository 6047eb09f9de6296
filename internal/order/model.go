package order

import (
	"time"

	"github.com/notgodfather/canteenapp/internal/cart"
)

type Status string

const (
	// StatusPending is set when the gateway order is created; the payment has
	// not reached a terminal state yet.
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Order is the application-side record of a placed order. The gateway owns
// the authoritative payment status; this row is the user-facing history
// derived from it. ID is store-assigned, OrderID is the gateway order id and
// unique across all rows.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	OrderID   string      `json:"orderId"`
	Items     []cart.Item `json:"items"`
	Amount    float64     `json:"amount"`
	Currency  string      `json:"currency"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	PaidAt    *time.Time  `json:"paidAt,omitempty"`
}

// User is the authenticated identity attached to an order. Only UID is
// required; the rest feeds the gateway's customer_details with fallbacks.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
