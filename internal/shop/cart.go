package shop

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CartLine is an in-memory, not-yet-persisted product + quantity pair.
type CartLine struct {
	Product Product
	Qty     int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart keys lines by product id; adding the same product again merges the
// quantities instead of duplicating the line.
type Cart struct {
	lines map[int64]*CartLine
}

func NewCart() *Cart {
	return &Cart{lines: make(map[int64]*CartLine)}
}

func (c *Cart) Add(p Product, qty int) {
	if l, ok := c.lines[p.ID]; ok {
		l.Qty += qty
		return
	}
	c.lines[p.ID] = &CartLine{Product: p, Qty: qty}
}

// UpdateQty replaces the quantity for a product already in the cart;
// qty <= 0 drops the line.
func (c *Cart) UpdateQty(productID int64, qty int) {
	l, ok := c.lines[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(c.lines, productID)
		return
	}
	l.Qty = qty
}

func (c *Cart) Remove(productID int64) {
	delete(c.lines, productID)
}

// Lines returns a snapshot sorted by product id, so callers iterate in a
// stable order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out
}

// ItemCount is the total number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Qty
	}
	return n
}

// Total sums the subtotals at the prices held in the cart. Placement does
// not trust this value; it recomputes from the product table.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Clear() {
	c.lines = make(map[int64]*CartLine)
}
