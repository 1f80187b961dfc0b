package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/money"
)

// CartRepository holds the active cart of each owner.
type CartRepository interface {
	Load(ctx context.Context, owner uuid.UUID) (*Cart, error)
	Save(ctx context.Context, owner uuid.UUID, cart *Cart) error
	Discard(ctx context.Context, owner uuid.UUID) error
}

// SettingsPort supplies per-owner configuration passed into the engine.
type SettingsPort interface {
	Policy(ctx context.Context, owner uuid.UUID) (money.Policy, error)
	DefaultReorderPoint(ctx context.Context, owner uuid.UUID) (int, error)
}

// CartView is a cart together with its totals at the owner's currency scale.
type CartView struct {
	Cart      *Cart     `json:"cart"`
	Totals    Totals    `json:"totals"`
	Formatted Formatted `json:"formatted"`
}

// Formatted holds amounts rendered in the owner's currency and locale.
type Formatted struct {
	Currency      string `json:"currency"`
	Subtotal      string `json:"subtotal"`
	TotalDiscount string `json:"total_discount"`
	FinalTotal    string `json:"final_total"`
}

func formatTotals(policy money.Policy, subtotal, discount, final decimal.Decimal) Formatted {
	policy = policy.OrDefault()
	return Formatted{
		Currency:      policy.Code(),
		Subtotal:      policy.Format(subtotal),
		TotalDiscount: policy.Format(discount),
		FinalTotal:    policy.Format(final),
	}
}

// SaleView is a sale together with its formatted amounts.
type SaleView struct {
	Sale
	Formatted Formatted `json:"formatted"`
}

// Service coordinates cart sessions, commits and sale history.
type Service struct {
	engine   *Engine
	carts    CartRepository
	settings SettingsPort
	store    Store
	location *time.Location
	logger   *slog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Engine   *Engine
	Carts    CartRepository
	Settings SettingsPort
	Store    Store
	Location *time.Location
	Logger   *slog.Logger
}

// NewService builds Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		engine:   cfg.Engine,
		carts:    cfg.Carts,
		settings: cfg.Settings,
		store:    cfg.Store,
		location: cfg.Location,
		logger:   cfg.Logger,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) view(ctx context.Context, owner uuid.UUID, cart *Cart) (CartView, error) {
	policy, err := s.settings.Policy(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	totals := cart.Totals(policy, decimal.Zero)
	return CartView{
		Cart:      cart,
		Totals:    totals,
		Formatted: formatTotals(policy, totals.Subtotal, totals.TotalDiscount, totals.FinalTotal),
	}, nil
}

// ViewSale formats the sale's amounts with the owner's currency policy.
func (s *Service) ViewSale(ctx context.Context, owner uuid.UUID, sale Sale) (SaleView, error) {
	policy, err := s.settings.Policy(ctx, owner)
	if err != nil {
		return SaleView{}, err
	}
	return SaleView{Sale: sale, Formatted: formatTotals(policy, sale.Subtotal, sale.TotalDiscount, sale.FinalTotal)}, nil
}

// Cart returns the owner's active cart.
func (s *Service) Cart(ctx context.Context, owner uuid.UUID) (CartView, error) {
	cart, err := s.carts.Load(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	return s.view(ctx, owner, cart)
}

// AddToCart adds qty of the product to the owner's cart.
func (s *Service) AddToCart(ctx context.Context, owner, productID uuid.UUID, qty int) (CartView, error) {
	return s.mutate(ctx, owner, func(cart *Cart) error {
		_, err := s.engine.AddProduct(ctx, owner, cart, productID, qty)
		return err
	})
}

// UpdateCartLine applies a line update to the owner's cart.
func (s *Service) UpdateCartLine(ctx context.Context, owner, lineID uuid.UUID, u LineUpdate) (CartView, error) {
	return s.mutate(ctx, owner, func(cart *Cart) error {
		_, err := cart.UpdateLine(lineID, u)
		return err
	})
}

// RemoveCartLine deletes one line of the owner's cart.
func (s *Service) RemoveCartLine(ctx context.Context, owner, lineID uuid.UUID) (CartView, error) {
	return s.mutate(ctx, owner, func(cart *Cart) error {
		return cart.RemoveLine(lineID)
	})
}

// DiscardCart cancels the owner's sales-entry session.
func (s *Service) DiscardCart(ctx context.Context, owner uuid.UUID) error {
	return s.carts.Discard(ctx, owner)
}

func (s *Service) mutate(ctx context.Context, owner uuid.UUID, fn func(*Cart) error) (CartView, error) {
	cart, err := s.carts.Load(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	if err := fn(cart); err != nil {
		return CartView{}, err
	}
	if err := s.carts.Save(ctx, owner, cart); err != nil {
		return CartView{}, err
	}
	return s.view(ctx, owner, cart)
}

// ValidateCart checks the owner's cart against current stock.
func (s *Service) ValidateCart(ctx context.Context, owner uuid.UUID) (CartView, error) {
	cart, err := s.carts.Load(ctx, owner)
	if err != nil {
		return CartView{}, err
	}
	if err := s.engine.ValidateStock(ctx, owner, cart); err != nil {
		return CartView{}, err
	}
	return s.view(ctx, owner, cart)
}

// Checkout commits the owner's cart with an optional overall discount. The
// stored cart is discarded only when the commit succeeds. When the discard
// fails the cleared cart is saved over it, so the committed token is never
// reused for new lines.
func (s *Service) Checkout(ctx context.Context, owner uuid.UUID, overallDiscount decimal.Decimal) (Sale, error) {
	cart, err := s.carts.Load(ctx, owner)
	if err != nil {
		return Sale{}, err
	}
	policy, err := s.settings.Policy(ctx, owner)
	if err != nil {
		return Sale{}, err
	}
	reorder, err := s.settings.DefaultReorderPoint(ctx, owner)
	if err != nil {
		return Sale{}, err
	}
	sale, err := s.engine.Commit(ctx, CommitInput{
		OwnerID:             owner,
		Cart:                cart,
		OverallDiscount:     overallDiscount,
		Policy:              policy,
		Location:            s.location,
		DefaultReorderPoint: reorder,
	})
	if err != nil {
		return Sale{}, err
	}
	if err := s.carts.Discard(ctx, owner); err != nil {
		logger := s.logger.With(slog.String("owner_id", owner.String()))
		logger.Warn("discard committed cart", slog.Any("error", err))
		if err := s.carts.Save(ctx, owner, cart); err != nil {
			// A stale copy keeps the committed token, so committing it unchanged replays this sale.
			logger.Error("reset committed cart", slog.Any("error", err))
		}
	}
	return sale, nil
}

// ListSales returns a page of the owner's sales, newest first.
func (s *Service) ListSales(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Sale, int, error) {
	if err := checkDates(filter.From, filter.To); err != nil {
		return nil, 0, err
	}
	return s.store.ListSales(ctx, owner, filter)
}

// GetSale returns one sale with its items.
func (s *Service) GetSale(ctx context.Context, owner, id uuid.UUID) (Sale, error) {
	return s.store.GetSale(ctx, owner, id)
}

// DailySummary aggregates sales per day between from and to inclusive.
func (s *Service) DailySummary(ctx context.Context, owner uuid.UUID, from, to string) ([]DailySummary, error) {
	if err := checkDates(from, to); err != nil {
		return nil, err
	}
	return s.store.DailySummary(ctx, owner, from, to)
}

// HasSalesOn reports whether the owner recorded any sale on date. An empty
// date means today in the service location.
func (s *Service) HasSalesOn(ctx context.Context, owner uuid.UUID, date string) (string, bool, error) {
	if date == "" {
		date = time.Now().In(s.location).Format(time.DateOnly)
	}
	if err := checkDates(date); err != nil {
		return "", false, err
	}
	ok, err := s.store.HasSalesOn(ctx, owner, date)
	return date, ok, err
}

func checkDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", d)}
		}
	}
	return nil
}
