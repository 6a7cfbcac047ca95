package domain

// CartItem is one line of the mirrored server cart.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Subtotal is the line total for this item.
func (i CartItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Cart is a point-in-time snapshot of the server-owned cart. Items are
// ordered by product ID and unique per product; the server enforces both,
// the snapshot preserves them.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Total is the sum of all line subtotals.
func (c Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// ItemCount is the sum of all quantities.
func (c Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Item returns the line for productID, if present.
func (c Cart) Item(productID int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Contains reports whether productID has a line in the cart.
func (c Cart) Contains(productID int64) bool {
	_, ok := c.Item(productID)
	return ok
}
