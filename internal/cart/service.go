package cart

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates unique IDs for items and sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Cart holds the running shopping cart and archives finalized carts to
// the history store. Safe for concurrent use.
type Cart struct {
	mu         sync.Mutex
	items      []Item // newest first
	db         DB
	idGen      IDGenerator
	timeSource TimeSource
}

// NewCart creates a Cart with default ID generator and time source
func NewCart(db DB) *Cart {
	return &Cart{
		db:         db,
		idGen:      &defaultIDGenerator{},
		timeSource: &defaultTimeSource{},
	}
}

// NewCartWithDeps creates a Cart with custom dependencies for testing
func NewCartWithDeps(db DB, idGen IDGenerator, timeSrc TimeSource) *Cart {
	return &Cart{
		db:         db,
		idGen:      idGen,
		timeSource: timeSrc,
	}
}

// Add appends an item to the cart. The store assigns the id and the
// total: totalPrice is always exactly unitPrice times quantity.
func (c *Cart) Add(name string, unitPrice float64, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if unitPrice < 0 {
		return Item{}, fmt.Errorf("unit price must not be negative, got %v", unitPrice)
	}

	item := Item{
		ID:         c.idGen.Generate(),
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		TotalPrice: unitPrice * float64(quantity),
	}

	c.mu.Lock()
	c.items = append([]Item{item}, c.items...)
	c.mu.Unlock()

	return item, nil
}

// Remove deletes an item by id and reports whether it existed.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a snapshot of the cart, newest first.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

// Total returns the sum of all item totals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, item := range c.items {
		total += item.TotalPrice
	}
	return total
}

// Count returns the number of items in the cart.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Finalize archives the current cart as an immutable session and
// empties the cart. Fails on an empty cart.
func (c *Cart) Finalize() (*Session, error) {
	c.mu.Lock()
	if len(c.items) == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("cart is empty")
	}
	items := make([]Item, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	var total float64
	for _, item := range items {
		total += item.TotalPrice
	}

	session := &Session{
		ID:        c.idGen.Generate(),
		Date:      c.timeSource.Now(),
		Total:     total,
		ItemCount: len(items),
		Items:     items,
	}

	if err := c.db.SaveSession(session); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	return session, nil
}

// Reload replaces the current cart with the items of an archived
// session.
func (c *Cart) Reload(sessionID string) error {
	session, err := c.db.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}

	items := make([]Item, len(session.Items))
	copy(items, session.Items)

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	return nil
}

// History returns all archived sessions, newest first.
func (c *Cart) History() ([]*Session, error) {
	sessions, err := c.db.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// ClearHistory removes all archived sessions.
func (c *Cart) ClearHistory() error {
	if err := c.db.ClearSessions(); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}
	return nil
}
