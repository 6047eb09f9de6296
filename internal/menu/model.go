package menu

// Item is a menu entry shown on the storefront. Prices here are the catalog
// source the cart lines are built from.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
