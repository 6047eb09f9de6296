package cart

// Item is a single cart line as submitted by the storefront.
// Prices come from the menu catalog; the backend never trusts a
// client-computed total, only the per-line price/quantity pairs.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
