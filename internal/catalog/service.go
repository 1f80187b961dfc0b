package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/shared"
)

// RepositoryPort abstracts item persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, item Item) error
	Get(ctx context.Context, owner, id uuid.UUID) (Item, error)
	List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Item, int, error)
	ListByIDs(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
	AdjustStock(ctx context.Context, owner, id uuid.UUID, delta int) (Item, error)
}

// VendorPort checks vendor ownership before an item references it.
type VendorPort interface {
	Exists(ctx context.Context, owner, id uuid.UUID) (bool, error)
}

// DefaultsPort supplies the owner's default reorder point.
type DefaultsPort interface {
	DefaultReorderPoint(ctx context.Context, owner uuid.UUID) (int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog operations.
type Service struct {
	repo     RepositoryPort
	vendors  VendorPort
	defaults DefaultsPort
	audit    AuditPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service. vendors, defaults and audit may be nil.
func NewService(repo RepositoryPort, vendors VendorPort, defaults DefaultsPort, audit AuditPort) *Service {
	return &Service{
		repo:     repo,
		vendors:  vendors,
		defaults: defaults,
		audit:    audit,
		validate: shared.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new item.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, input CreateItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = normaliseSKU(input.SKU)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Item{}, err
	}
	if err := validatePrices(input.Price, input.PurchasePrice); err != nil {
		return Item{}, err
	}
	if err := s.checkVendor(ctx, owner, input.VendorID); err != nil {
		return Item{}, err
	}
	now := s.now()
	item := Item{
		ID:            uuid.New(),
		OwnerID:       owner,
		Name:          input.Name,
		SKU:           input.SKU,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		ReorderPoint:  input.ReorderPoint,
		Category:      strings.TrimSpace(input.Category),
		Velocity:      input.Velocity,
		VendorID:      input.VendorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if item.Velocity == "" {
		item.Velocity = VelocityMedium
	}
	if input.PurchasePrice != nil {
		item.PurchasePrice = decimal.NewNullDecimal(*input.PurchasePrice)
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return Item{}, err
	}
	s.record(ctx, owner, "catalog.item.created", item.ID, map[string]any{"name": item.Name})
	return item, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, owner, id uuid.UUID) (Item, error) {
	return s.repo.Get(ctx, owner, id)
}

// ListByIDs returns the items among ids that belong to owner.
func (s *Service) ListByIDs(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.ListByIDs(ctx, owner, ids)
}

// List returns a page of items plus the total count.
func (s *Service) List(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Item, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.LowStockOnly && filter.DefaultReorderPoint == 0 {
		filter.DefaultReorderPoint = s.DefaultReorderPoint(ctx, owner)
	}
	return s.repo.List(ctx, owner, filter)
}

// LowStock lists items at or below their reorder point.
func (s *Service) LowStock(ctx context.Context, owner uuid.UUID, page shared.PageRequest) ([]Item, int, error) {
	return s.List(ctx, owner, ListFilter{LowStockOnly: true, Page: page})
}

// DefaultReorderPoint resolves the owner's fallback threshold.
func (s *Service) DefaultReorderPoint(ctx context.Context, owner uuid.UUID) int {
	if s.defaults == nil {
		return 0
	}
	n, err := s.defaults.DefaultReorderPoint(ctx, owner)
	if err != nil {
		return 0
	}
	return n
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, owner, id uuid.UUID, input UpdateItemInput) (Item, error) {
	input.SKU = normaliseSKU(input.SKU)
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return Item{}, err
	}
	item, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return Item{}, err
	}
	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.SKU != nil {
		item.SKU = input.SKU
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.PurchasePrice != nil {
		item.PurchasePrice = decimal.NewNullDecimal(*input.PurchasePrice)
	}
	var purchase *decimal.Decimal
	if item.PurchasePrice.Valid {
		purchase = &item.PurchasePrice.Decimal
	}
	if err := validatePrices(item.Price, purchase); err != nil {
		return Item{}, err
	}
	if input.StockQuantity != nil {
		item.StockQuantity = *input.StockQuantity
	}
	if input.ReorderPoint != nil {
		item.ReorderPoint = input.ReorderPoint
	}
	if input.Category != nil {
		item.Category = strings.TrimSpace(*input.Category)
	}
	if input.Velocity != nil {
		item.Velocity = *input.Velocity
	}
	switch {
	case input.ClearVendor:
		item.VendorID = nil
	case input.VendorID != nil:
		if err := s.checkVendor(ctx, owner, input.VendorID); err != nil {
			return Item{}, err
		}
		item.VendorID = input.VendorID
	}
	item.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}
	s.record(ctx, owner, "catalog.item.updated", item.ID, nil)
	return item, nil
}

// Delete removes the item. Sale items keep their denormalised snapshot.
func (s *Service) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.record(ctx, owner, "catalog.item.deleted", id, nil)
	return nil
}

// AdjustStock applies a relative stock change. The result is floored at zero.
func (s *Service) AdjustStock(ctx context.Context, owner, id uuid.UUID, delta int, reason string) (Item, error) {
	if delta == 0 {
		return Item{}, fmt.Errorf("%w: catalog: stock delta must not be zero", shared.ErrValidation)
	}
	item, err := s.repo.AdjustStock(ctx, owner, id, delta)
	if err != nil {
		return Item{}, err
	}
	s.record(ctx, owner, "catalog.item.stock_adjusted", id, map[string]any{
		"delta":  delta,
		"stock":  item.StockQuantity,
		"reason": reason,
	})
	return item, nil
}

func (s *Service) checkVendor(ctx context.Context, owner uuid.UUID, vendorID *uuid.UUID) error {
	if vendorID == nil || s.vendors == nil {
		return nil
	}
	ok, err := s.vendors.Exists(ctx, owner, *vendorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownVendor
	}
	return nil
}

func (s *Service) record(ctx context.Context, owner uuid.UUID, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  owner.String(),
		Action:   action,
		Entity:   "inventory_item",
		EntityID: id.String(),
		Meta:     meta,
		At:       s.now(),
	})
}

func validatePrices(price decimal.Decimal, purchase *decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: catalog: price must not be negative", shared.ErrValidation)
	}
	if purchase != nil && purchase.IsNegative() {
		return fmt.Errorf("%w: catalog: purchase price must not be negative", shared.ErrValidation)
	}
	return nil
}

func normaliseSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
