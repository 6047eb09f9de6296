package events

import "time"

const EventTypeOrderPaid = "OrderPaid"

// CartItem mirrors the order line contract so kitchen consumers do not
// depend on internal packages.
type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderPaid is published exactly once per order, when the webhook confirms
// terminal payment success.
type OrderPaid struct {
	EventType string     `json:"eventType"`
	OrderID   string     `json:"orderId"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Timestamp time.Time  `json:"timestamp"`
}
