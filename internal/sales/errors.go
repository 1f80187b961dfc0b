package sales

import (
	"fmt"
	"strings"

	"github.com/retailpad/retailpad/internal/shared"
)

// ValidationError reports input the engine refuses to act on.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "sales: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

var (
	// ErrEmptyCart is returned when committing a cart without lines.
	ErrEmptyCart = &ValidationError{Reason: "cart is empty"}
	// ErrLineNotFound indicates the cart has no line with the given id.
	ErrLineNotFound = fmt.Errorf("sales: cart line %w", shared.ErrNotFound)
	// ErrSaleNotFound indicates no sale matches the lookup.
	ErrSaleNotFound = fmt.Errorf("sales: sale %w", shared.ErrNotFound)
	// ErrDuplicateSale is returned by stores when the idempotency key is taken.
	ErrDuplicateSale = fmt.Errorf("sales: sale %w", shared.ErrDuplicate)
	// ErrInsufficientStock is returned by a conditional decrement that matched no row.
	ErrInsufficientStock = fmt.Errorf("sales: insufficient stock: %w", shared.ErrConflict)
)

// StockShortfall describes one cart line the store cannot fulfil.
type StockShortfall struct {
	LineID     string `json:"line_id,omitempty"`
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Missing    bool   `json:"missing,omitempty"`
}

// StockError lists every line whose quantity exceeds the available stock or
// whose product no longer exists.
type StockError struct {
	Lines []StockShortfall
}

func (e *StockError) Error() string {
	return "sales: insufficient stock for " + strings.Join(e.Names(), ", ")
}

func (e *StockError) Unwrap() error {
	return shared.ErrConflict
}

// Names returns the offending line names in cart order.
func (e *StockError) Names() []string {
	names := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		names = append(names, l.Name)
	}
	return names
}

// Stage identifies the commit write that failed.
type Stage string

const (
	StageCreateSale     Stage = "create_sale"
	StageCreateItems    Stage = "create_items"
	StageDecrementStock Stage = "decrement_stock"
)

// PersistenceError wraps a store failure during commit. The transaction has
// been rolled back and the cart is left intact.
type PersistenceError struct {
	Stage Stage
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sales: commit failed at %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
