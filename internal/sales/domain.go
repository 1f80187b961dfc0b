// Package sales turns a cart of catalog items into a recorded sale and the
// matching stock decrements.
package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/shared"
)

// Product is the catalog data captured when a line is added to a cart.
type Product struct {
	Ref   uuid.UUID
	Name  string
	Price decimal.Decimal
}

// CartLine is one product in a cart. LineTotal is always
// Quantity * UnitPrice * (1 - DiscountPercent/100).
type CartLine struct {
	ID              uuid.UUID       `json:"id"`
	ProductRef      uuid.UUID       `json:"product_ref"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Gross returns Quantity * UnitPrice.
func (l CartLine) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the transient set of lines for one sales-entry session.
// CommitToken identifies the sale a commit of this cart creates; retried
// commits with the same token return the original sale.
type Cart struct {
	Lines       []CartLine `json:"lines"`
	CommitToken string     `json:"commit_token"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Totals summarises a cart.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	LineDiscount    decimal.Decimal `json:"line_discount"`
	OverallDiscount decimal.Decimal `json:"overall_discount"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	FinalTotal      decimal.Decimal `json:"final_total"`
}

// LineUpdate is a partial change to a cart line. Nil fields are kept.
type LineUpdate struct {
	Quantity        *int
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

// Sale is a committed cart.
type Sale struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OwnerID        uuid.UUID       `json:"-" db:"owner_id"`
	SaleDate       string          `json:"sale_date" db:"sale_date"`
	SaleTime       string          `json:"sale_time" db:"sale_time"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	TotalDiscount  decimal.Decimal `json:"total_discount" db:"total_discount"`
	FinalTotal     decimal.Decimal `json:"final_total" db:"final_total"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	Items          []SaleItem      `json:"items,omitempty" db:"-"`
}

// SaleItem is an immutable snapshot of a cart line at commit time.
type SaleItem struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	SaleID          uuid.UUID       `json:"sale_id" db:"sale_id"`
	ProductRef      uuid.UUID       `json:"product_ref" db:"product_ref"`
	ItemName        string          `json:"item_name" db:"item_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" db:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
	Total           decimal.Decimal `json:"total" db:"total"`
	LineOrder       int             `json:"-" db:"line_order"`
}

// StockLevel is the state of an item after a conditional decrement.
type StockLevel struct {
	Found        bool
	Name         string
	Remaining    int
	ReorderPoint *int
}

// LowStockAlert is published when a sale leaves an item at or below its
// reorder point.
type LowStockAlert struct {
	OwnerID      uuid.UUID `json:"owner_id"`
	ProductRef   uuid.UUID `json:"product_ref"`
	Name         string    `json:"name"`
	Remaining    int       `json:"remaining"`
	ReorderPoint int       `json:"reorder_point"`
	SaleID       uuid.UUID `json:"sale_id"`
}

// ListFilter narrows sale history. Dates are YYYY-MM-DD and inclusive.
type ListFilter struct {
	From string
	To   string
	Page shared.PageRequest
}

// DailySummary aggregates the sales of one day.
type DailySummary struct {
	Date      string          `json:"date" db:"sale_date"`
	SaleCount int             `json:"sale_count" db:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue" db:"revenue"`
}
