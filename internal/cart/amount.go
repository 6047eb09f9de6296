package cart

import (
	"errors"
	"math"
)

// ErrInvalidAmount is returned when a cart line carries a negative price or
// quantity. Callers reject zero totals separately before creating a gateway
// order.
var ErrInvalidAmount = errors.New("invalid price/qty")

// ComputeAmount sums price*quantity over the cart, rounded to two decimals.
// An empty cart computes to 0.
func ComputeAmount(items []Item) (float64, error) {
	total := 0.0
	for _, it := range items {
		if it.Price < 0 || it.Quantity < 0 {
			return 0, ErrInvalidAmount
		}
		total += it.Price * float64(it.Quantity)
	}
	return math.Round(total*100) / 100, nil
}
