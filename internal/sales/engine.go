package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailpad/retailpad/internal/catalog"
	"github.com/retailpad/retailpad/internal/money"
	"github.com/retailpad/retailpad/internal/shared"
)

// ProductLookup reads current catalog data.
type ProductLookup interface {
	Get(ctx context.Context, owner, id uuid.UUID) (catalog.Item, error)
	ListByIDs(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) ([]catalog.Item, error)
}

// Store persists sales. Every method is scoped by owner.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	FindSaleByKey(ctx context.Context, owner uuid.UUID, key string) (Sale, error)
	GetSale(ctx context.Context, owner, id uuid.UUID) (Sale, error)
	ListSales(ctx context.Context, owner uuid.UUID, filter ListFilter) ([]Sale, int, error)
	DailySummary(ctx context.Context, owner uuid.UUID, from, to string) ([]DailySummary, error)
	HasSalesOn(ctx context.Context, owner uuid.UUID, date string) (bool, error)
}

// TxStore exposes the writes performed inside the commit transaction.
type TxStore interface {
	// CreateSale returns ErrDuplicateSale when the idempotency key exists.
	CreateSale(ctx context.Context, sale Sale) error
	CreateSaleItems(ctx context.Context, items []SaleItem) error
	// DecrementStock subtracts qty only when at least qty is in stock. It
	// returns ErrInsufficientStock together with the current level otherwise.
	DecrementStock(ctx context.Context, owner, productRef uuid.UUID, qty int) (StockLevel, error)
}

// AlertPublisher receives low-stock alerts after a commit.
type AlertPublisher interface {
	PublishLowStock(ctx context.Context, alert LowStockAlert) error
}

// AuditPort records committed sales.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// EngineConfig groups engine dependencies. Alerts, Audit, Metrics and Logger
// are optional.
type EngineConfig struct {
	Products ProductLookup
	Store    Store
	Alerts   AlertPublisher
	Audit    AuditPort
	Metrics  *Metrics
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Engine validates and commits carts.
type Engine struct {
	products ProductLookup
	store    Store
	alerts   AlertPublisher
	audit    AuditPort
	metrics  *Metrics
	logger   *slog.Logger
	clock    func() time.Time
}

// NewEngine builds Engine.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		products: cfg.Products,
		store:    cfg.Store,
		alerts:   cfg.Alerts,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// CommitInput carries everything a commit needs besides the store.
type CommitInput struct {
	OwnerID         uuid.UUID
	Cart            *Cart
	OverallDiscount decimal.Decimal
	Policy          money.Policy
	// Location decides the recorded sale date and time. Nil means UTC.
	Location *time.Location
	// DefaultReorderPoint applies to items without their own reorder point.
	DefaultReorderPoint int
}

// AddProduct looks up the product and adds qty of it to the cart.
func (e *Engine) AddProduct(ctx context.Context, owner uuid.UUID, cart *Cart, productID uuid.UUID, qty int) (CartLine, error) {
	item, err := e.products.Get(ctx, owner, productID)
	if err != nil {
		return CartLine{}, err
	}
	return cart.AddLine(Product{Ref: item.ID, Name: item.Name, Price: item.Price}, qty), nil
}

// ValidateStock checks every line against the current stock. It returns a
// *StockError naming all lines that ask for more than is available or whose
// product no longer exists.
func (e *Engine) ValidateStock(ctx context.Context, owner uuid.UUID, cart *Cart) error {
	if cart.IsEmpty() {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductRef)
	}
	items, err := e.products.ListByIDs(ctx, owner, ids)
	if err != nil {
		return fmt.Errorf("sales: read stock: %w", err)
	}
	stock := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		stock[it.ID] = it.StockQuantity
	}
	var short []StockShortfall
	for _, l := range cart.Lines {
		available, ok := stock[l.ProductRef]
		if ok && l.Quantity <= available {
			continue
		}
		short = append(short, StockShortfall{
			LineID:     l.ID.String(),
			ProductRef: l.ProductRef.String(),
			Name:       l.Name,
			Requested:  l.Quantity,
			Available:  available,
			Missing:    !ok,
		})
	}
	if len(short) > 0 {
		return &StockError{Lines: short}
	}
	return nil
}

// Commit records the cart as a sale and decrements stock in one transaction.
// Nothing is written when the cart is empty or stock validation fails. On
// success the cart is cleared; on failure it is left untouched. Committing a
// cart whose token already produced a sale returns that sale.
func (e *Engine) Commit(ctx context.Context, in CommitInput) (Sale, error) {
	cart := in.Cart
	if cart.IsEmpty() {
		e.metrics.Failed(reasonEmptyCart)
		return Sale{}, ErrEmptyCart
	}
	logger := e.logger.With(slog.String("owner_id", in.OwnerID.String()), slog.String("commit_token", cart.CommitToken))

	if existing, ok, err := e.existing(ctx, in.OwnerID, cart.CommitToken); err != nil {
		e.metrics.Failed(reasonStore)
		return Sale{}, err
	} else if ok {
		logger.Info("commit replayed", slog.String("sale_id", existing.ID.String()))
		e.metrics.Committed(true)
		cart.Clear()
		return existing, nil
	}

	if err := e.ValidateStock(ctx, in.OwnerID, cart); err != nil {
		e.metrics.Failed(reasonFor(err))
		return Sale{}, err
	}

	sale := e.buildSale(in)
	var (
		stage  Stage
		alerts []LowStockAlert
	)
	err := e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		alerts = alerts[:0]
		stage = StageCreateSale
		if err := tx.CreateSale(ctx, sale); err != nil {
			return err
		}
		stage = StageCreateItems
		if err := tx.CreateSaleItems(ctx, sale.Items); err != nil {
			return err
		}
		stage = StageDecrementStock
		var short []StockShortfall
		for _, l := range cart.Lines {
			level, err := tx.DecrementStock(ctx, in.OwnerID, l.ProductRef, l.Quantity)
			if errors.Is(err, ErrInsufficientStock) {
				short = append(short, StockShortfall{
					LineID:     l.ID.String(),
					ProductRef: l.ProductRef.String(),
					Name:       l.Name,
					Requested:  l.Quantity,
					Available:  level.Remaining,
					Missing:    !level.Found,
				})
				continue
			}
			if err != nil {
				return err
			}
			threshold := in.DefaultReorderPoint
			if level.ReorderPoint != nil {
				threshold = *level.ReorderPoint
			}
			if level.Remaining <= threshold {
				alerts = append(alerts, LowStockAlert{
					OwnerID:      in.OwnerID,
					ProductRef:   l.ProductRef,
					Name:         level.Name,
					Remaining:    level.Remaining,
					ReorderPoint: threshold,
					SaleID:       sale.ID,
				})
			}
		}
		if len(short) > 0 {
			return &StockError{Lines: short}
		}
		return nil
	})
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) {
			logger.Warn("stock changed during commit", slog.Any("lines", stockErr.Names()))
			e.metrics.Failed(reasonStock)
			return Sale{}, stockErr
		}
		if errors.Is(err, ErrDuplicateSale) {
			if existing, ok, lookupErr := e.existing(ctx, in.OwnerID, cart.CommitToken); lookupErr == nil && ok {
				logger.Info("concurrent commit replayed", slog.String("sale_id", existing.ID.String()))
				e.metrics.Committed(true)
				cart.Clear()
				return existing, nil
			}
		}
		logger.Error("commit failed", slog.String("stage", string(stage)), slog.Any("error", err))
		e.metrics.Failed(reasonStore)
		return Sale{}, &PersistenceError{Stage: stage, Err: err}
	}

	e.metrics.Committed(false)
	logger.Info("sale committed",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("lines", len(sale.Items)),
		slog.String("final_total", sale.FinalTotal.String()))
	cart.Clear()
	e.record(ctx, logger, sale)
	e.publish(ctx, logger, alerts)
	return sale, nil
}

func (e *Engine) existing(ctx context.Context, owner uuid.UUID, key string) (Sale, bool, error) {
	sale, err := e.store.FindSaleByKey(ctx, owner, key)
	switch {
	case err == nil:
		return sale, true, nil
	case errors.Is(err, ErrSaleNotFound):
		return Sale{}, false, nil
	default:
		return Sale{}, false, fmt.Errorf("sales: look up commit token: %w", err)
	}
}

func (e *Engine) buildSale(in CommitInput) Sale {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := e.clock().In(loc)
	policy := in.Policy.OrDefault()
	totals := in.Cart.Totals(policy, in.OverallDiscount)

	sale := Sale{
		ID:             uuid.New(),
		OwnerID:        in.OwnerID,
		SaleDate:       now.Format(time.DateOnly),
		SaleTime:       now.Format(time.TimeOnly),
		Subtotal:       totals.Subtotal,
		TotalDiscount:  totals.TotalDiscount,
		FinalTotal:     totals.FinalTotal,
		IdempotencyKey: in.Cart.CommitToken,
		CreatedAt:      now.UTC(),
		Items:          make([]SaleItem, 0, len(in.Cart.Lines)),
	}
	for i, l := range in.Cart.Lines {
		settled := l.Settle(policy)
		sale.Items = append(sale.Items, SaleItem{
			ID:              uuid.New(),
			SaleID:          sale.ID,
			ProductRef:      l.ProductRef,
			ItemName:        l.Name,
			Quantity:        l.Quantity,
			UnitPrice:       settled.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			Total:           settled.Total,
			LineOrder:       i,
		})
	}
	return sale
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, sale Sale) {
	if e.audit == nil {
		return
	}
	err := e.audit.Record(ctx, shared.AuditLog{
		ActorID:  sale.OwnerID.String(),
		Action:   "sales.sale.committed",
		Entity:   "sale",
		EntityID: sale.ID.String(),
		Meta: map[string]any{
			"lines":        len(sale.Items),
			"final_total":  sale.FinalTotal.String(),
			"commit_token": sale.IdempotencyKey,
		},
		At: sale.CreatedAt,
	})
	if err != nil {
		logger.Warn("audit sale commit", slog.String("sale_id", sale.ID.String()), slog.Any("error", err))
	}
}

func (e *Engine) publish(ctx context.Context, logger *slog.Logger, alerts []LowStockAlert) {
	for _, a := range alerts {
		logger.Info("low stock after sale",
			slog.String("product_ref", a.ProductRef.String()),
			slog.Int("remaining", a.Remaining),
			slog.Int("reorder_point", a.ReorderPoint))
		if e.alerts == nil {
			continue
		}
		if err := e.alerts.PublishLowStock(ctx, a); err != nil {
			logger.Warn("publish low stock alert", slog.String("product_ref", a.ProductRef.String()), slog.Any("error", err))
		}
	}
}
