// Package vendors manages the suppliers inventory items are bought from.
package vendors

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailpad/retailpad/internal/shared"
)

// ErrNotFound indicates the vendor does not exist for the owner.
var ErrNotFound = fmt.Errorf("vendors: vendor %w", shared.ErrNotFound)

// Vendor is a supplier.
type Vendor struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"-" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	ContactName string    `json:"contact_name" db:"contact_name"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone" db:"phone"`
	Address     string    `json:"address" db:"address"`
	Notes       string    `json:"notes" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// VendorInput is accepted on create and full update.
type VendorInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=200"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address" validate:"max=500"`
	Notes       string `json:"notes" validate:"max=2000"`
}

// ListFilter narrows a vendor listing.
type ListFilter struct {
	Search string
	Page   shared.PageRequest
}
