package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/money"
)

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 100000

// NewCart returns an empty cart with a fresh commit token.
func NewCart() *Cart {
	return &Cart{CommitToken: uuid.NewString()}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Clear drops all lines and rotates the commit token.
func (c *Cart) Clear() {
	c.Lines = nil
	c.rotate()
}

// rotate mints a new commit token. Every change to the lines calls it, so a
// token only ever identifies one cart content.
func (c *Cart) rotate() {
	c.CommitToken = uuid.NewString()
}

func clampQuantity(qty int) int {
	return min(max(qty, 1), MaxQuantity)
}

// AddLine merges qty of p into the cart. An existing line for the same
// product keeps its price and discount and has the quantities summed; a new
// line is seeded with the catalog price. Quantities are clamped to
// [1, MaxQuantity].
func (c *Cart) AddLine(p Product, qty int) CartLine {
	qty = clampQuantity(qty)
	c.rotate()
	if i := c.indexOfProduct(p.Ref); i >= 0 {
		line := &c.Lines[i]
		line.Quantity = clampQuantity(line.Quantity + qty)
		line.recompute()
		return *line
	}
	line := CartLine{
		ID:              uuid.New(),
		ProductRef:      p.Ref,
		Name:            p.Name,
		Quantity:        qty,
		UnitPrice:       money.NonNegative(p.Price).Round(money.StorageScale),
		DiscountPercent: decimal.Zero,
	}
	line.recompute()
	c.Lines = append(c.Lines, line)
	return line
}

// UpdateLine applies u to the line with the given id. Quantity is clamped to
// [1, MaxQuantity], unit price to at least zero and discount to [0, 100].
func (c *Cart) UpdateLine(id uuid.UUID, u LineUpdate) (CartLine, error) {
	i := c.indexOfLine(id)
	if i < 0 {
		return CartLine{}, ErrLineNotFound
	}
	line := &c.Lines[i]
	if u.Quantity != nil {
		line.Quantity = clampQuantity(*u.Quantity)
	}
	if u.UnitPrice != nil {
		line.UnitPrice = money.NonNegative(*u.UnitPrice).Round(money.StorageScale)
	}
	if u.DiscountPercent != nil {
		line.DiscountPercent = money.ClampPercent(*u.DiscountPercent).Round(money.StorageScale)
	}
	line.recompute()
	c.rotate()
	return *line, nil
}

// RemoveLine deletes the line with the given id.
func (c *Cart) RemoveLine(id uuid.UUID) error {
	i := c.indexOfLine(id)
	if i < 0 {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.rotate()
	return nil
}

// SettledLine is a cart line priced at a currency scale.
type SettledLine struct {
	UnitPrice decimal.Decimal
	Gross     decimal.Decimal
	Total     decimal.Decimal
}

// Settle prices the line at the policy's scale. The unit price is rounded
// first, so Gross is exact and Total never exceeds it.
func (l CartLine) Settle(policy money.Policy) SettledLine {
	policy = policy.OrDefault()
	unit := policy.Round(l.UnitPrice)
	gross := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return SettledLine{
		UnitPrice: unit,
		Gross:     gross,
		Total:     policy.Round(money.ApplyPercentOff(gross, l.DiscountPercent)),
	}
}

// Totals computes the cart totals at the policy's currency scale with an
// overall discount applied on top of the line discounts. The subtotal is the
// sum of the settled gross amounts and the line discount the sum of each
// line's gross minus its rounded total. Negative overall discounts count as
// zero and the final total never drops below zero.
func (c *Cart) Totals(policy money.Policy, overall decimal.Decimal) Totals {
	policy = policy.OrDefault()
	subtotal := decimal.Zero
	net := decimal.Zero
	if c != nil {
		for _, l := range c.Lines {
			settled := l.Settle(policy)
			subtotal = subtotal.Add(settled.Gross)
			net = net.Add(settled.Total)
		}
	}
	overall = policy.Round(money.NonNegative(overall))
	lineDiscount := subtotal.Sub(net)
	totalDiscount := lineDiscount.Add(overall)
	return Totals{
		Subtotal:        subtotal,
		LineDiscount:    lineDiscount,
		OverallDiscount: overall,
		TotalDiscount:   totalDiscount,
		FinalTotal:      money.NonNegative(subtotal.Sub(totalDiscount)),
	}
}

func (c *Cart) indexOfProduct(ref uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductRef == ref {
			return i
		}
	}
	return -1
}

func (c *Cart) indexOfLine(id uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *CartLine) recompute() {
	l.LineTotal = money.ApplyPercentOff(l.Gross(), l.DiscountPercent)
}

// RawLineUpdate carries unparsed form values for a line update. Nil fields are
// kept; present but non-numeric values fall back to quantity 1, price 0 and
// discount 0.
type RawLineUpdate struct {
	Quantity        *string
	UnitPrice       *string
	DiscountPercent *string
}

// ParseLineUpdate converts raw input into a LineUpdate.
func ParseLineUpdate(raw RawLineUpdate) LineUpdate {
	var u LineUpdate
	if raw.Quantity != nil {
		qty := 1
		if d, ok := money.Parse(*raw.Quantity); ok {
			d = money.Clamp(d.Floor(), decimal.NewFromInt(1), decimal.NewFromInt(MaxQuantity))
			qty = int(d.IntPart())
		}
		u.Quantity = &qty
	}
	if raw.UnitPrice != nil {
		price, _ := money.Parse(*raw.UnitPrice)
		u.UnitPrice = &price
	}
	if raw.DiscountPercent != nil {
		pct, _ := money.Parse(*raw.DiscountPercent)
		u.DiscountPercent = &pct
	}
	return u
}
