package cart

import (
	"errors"
	"time"
)

// ErrNothingToAdd is returned when the calculator holds no positive
// value to launch into the cart.
var ErrNothingToAdd = errors.New("cart: nothing to add")

// Item is one line in the running cart.
type Item struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// Session is an immutable snapshot of a finalized cart, archived in
// the shopping history.
type Session struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Total     float64   `json:"total"`
	ItemCount int       `json:"itemCount"`
	Items     []Item    `json:"items"`
}
