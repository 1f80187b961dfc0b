package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/retailpad/retailpad/internal/catalog"
	jobmetrics "github.com/retailpad/retailpad/internal/jobs"
	"github.com/retailpad/retailpad/internal/sales"
	"github.com/retailpad/retailpad/internal/shared"
)

// StockReader returns the current state of an item.
type StockReader interface {
	Get(ctx context.Context, owner, id uuid.UUID) (catalog.Item, error)
}

// LowStockJob confirms and records low-stock alerts.
type LowStockJob struct {
	Items   StockReader
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockJob wires dependencies for the low-stock handler.
func NewLowStockJob(items StockReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockJob {
	return &LowStockJob{Items: items, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStock tasks. Alerts for items that were deleted or
// restocked since the sale are dropped.
func (j *LowStockJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil {
		return errors.New("low stock: handler not configured")
	}
	var alert sales.LowStockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("low stock: decode payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskLowStock)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(
		slog.String("owner_id", alert.OwnerID.String()),
		slog.String("product_ref", alert.ProductRef.String()),
		slog.String("sale_id", alert.SaleID.String()),
	)

	remaining := alert.Remaining
	if j.Items != nil {
		item, err := j.Items.Get(ctx, alert.OwnerID, alert.ProductRef)
		if errors.Is(err, shared.ErrNotFound) {
			logger.Info("low stock item no longer exists")
			return nil
		}
		if err != nil {
			return fmt.Errorf("low stock: read item: %w", err)
		}
		remaining = item.StockQuantity
		if remaining > alert.ReorderPoint {
			logger.Info("low stock resolved before processing", slog.Int("stock", remaining))
			return nil
		}
	}

	j.Metrics.AddLowStock()
	logger.Warn("item at or below reorder point",
		slog.String("name", alert.Name),
		slog.Int("stock", remaining),
		slog.Int("reorder_point", alert.ReorderPoint))
	return nil
}

func (j *LowStockJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
