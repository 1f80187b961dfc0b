// Package catalog manages the inventory items a business sells.
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/money"
	"github.com/retailpad/retailpad/internal/shared"
)

// Velocity classifies how quickly an item sells. Informational only.
type Velocity string

const (
	VelocityFast   Velocity = "fast"
	VelocityMedium Velocity = "medium"
	VelocitySlow   Velocity = "slow"
)

// StockStatus is derived from stock quantity and reorder point.
type StockStatus string

const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockIn         StockStatus = "in_stock"
)

var (
	// ErrNotFound indicates the item does not exist for the owner.
	ErrNotFound = fmt.Errorf("catalog: item %w", shared.ErrNotFound)
	// ErrDuplicateSKU indicates another item of the owner already uses the SKU.
	ErrDuplicateSKU = fmt.Errorf("catalog: sku %w", shared.ErrDuplicate)
	// ErrUnknownVendor indicates the referenced vendor is not owned by the caller.
	ErrUnknownVendor = fmt.Errorf("%w: catalog: unknown vendor", shared.ErrValidation)
)

// Item is a product in the owner's catalog.
type Item struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	OwnerID       uuid.UUID           `json:"-" db:"owner_id"`
	Name          string              `json:"name" db:"name"`
	SKU           *string             `json:"sku,omitempty" db:"sku"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	PurchasePrice decimal.NullDecimal `json:"purchase_price" db:"purchase_price"`
	StockQuantity int                 `json:"stock_quantity" db:"stock_quantity"`
	ReorderPoint  *int                `json:"reorder_point,omitempty" db:"reorder_point"`
	Category      string              `json:"category" db:"category"`
	Velocity      Velocity            `json:"velocity" db:"velocity"`
	VendorID      *uuid.UUID          `json:"vendor_id,omitempty" db:"vendor_id"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// Threshold returns the item's reorder point, or fallback when unset.
func (i Item) Threshold(fallback int) int {
	if i.ReorderPoint != nil {
		return *i.ReorderPoint
	}
	return fallback
}

// Status classifies the current stock level.
func (i Item) Status(defaultReorderPoint int) StockStatus {
	switch {
	case i.StockQuantity <= 0:
		return StockOutOfStock
	case i.StockQuantity <= i.Threshold(defaultReorderPoint):
		return StockLow
	default:
		return StockIn
	}
}

// Margin is the difference between selling and purchase price.
type Margin struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// Margin returns the unit margin, or false when no purchase price is known.
func (i Item) Margin() (Margin, bool) {
	if !i.PurchasePrice.Valid {
		return Margin{}, false
	}
	amount := i.Price.Sub(i.PurchasePrice.Decimal)
	return Margin{
		Amount:  amount,
		Percent: money.Percent(amount, i.Price).Round(2),
	}, true
}

// CreateItemInput carries the fields accepted when creating an item.
type CreateItemInput struct {
	Name          string           `json:"name" validate:"required,max=200"`
	SKU           *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price         decimal.Decimal  `json:"price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	StockQuantity int              `json:"stock_quantity" validate:"gte=0"`
	ReorderPoint  *int             `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
	Category      string           `json:"category" validate:"max=100"`
	Velocity      Velocity         `json:"velocity,omitempty" validate:"omitempty,oneof=fast medium slow"`
	VendorID      *uuid.UUID       `json:"vendor_id,omitempty"`
}

// UpdateItemInput carries a partial update. Nil fields are left untouched.
type UpdateItemInput struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	SKU           *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	ReorderPoint  *int             `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
	Category      *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Velocity      *Velocity        `json:"velocity,omitempty" validate:"omitempty,oneof=fast medium slow"`
	VendorID      *uuid.UUID       `json:"vendor_id,omitempty"`
	ClearVendor   bool             `json:"clear_vendor,omitempty"`
}

// ListFilter narrows an item listing.
type ListFilter struct {
	Search       string
	Category     string
	LowStockOnly bool
	// DefaultReorderPoint applies to items without their own reorder point.
	DefaultReorderPoint int
	Page                shared.PageRequest
}
