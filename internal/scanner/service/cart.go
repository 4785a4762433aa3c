package service

import (
	"github.com/google/uuid"

	catalogrepo "scanpos_backend/internal/catalog/repository"
)

// CartLine is one working line in a session cart. Name and price are captured
// at add-time for display only; finalize re-derives prices from the catalog.
type CartLine struct {
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	Barcode    string    `json:"barcode"`
	PriceCents int64     `json:"priceCents"`
	Quantity   int       `json:"quantity"`
}

// Cart is the session-local working line list. It carries no locking of its
// own; the owning session serializes access.
type Cart struct {
	lines []CartLine
	index map[uuid.UUID]int
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{index: make(map[uuid.UUID]int)}
}

// Add merges the product into the cart: an existing line for the same product
// grows by quantity, otherwise a new line is appended.
func (c *Cart) Add(p catalogrepo.Product, quantity int) {
	if i, ok := c.index[p.ID]; ok {
		c.lines[i].Quantity += quantity
		return
	}
	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, CartLine{
		ProductID:  p.ID,
		Name:       p.Name,
		Barcode:    p.Barcode,
		PriceCents: p.PriceCents,
		Quantity:   quantity,
	})
}

// Lines returns a copy of the cart in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// TotalCents sums the display prices. Not authoritative.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, l := range c.lines {
		total += int64(l.Quantity) * l.PriceCents
	}
	return total
}

// Reset clears all lines.
func (c *Cart) Reset() {
	c.lines = nil
	c.index = make(map[uuid.UUID]int)
}
