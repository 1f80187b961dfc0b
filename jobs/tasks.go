package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/retailpad/retailpad/internal/sales"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStock is emitted after a sale leaves an item at or below its reorder point.
	TaskLowStock = "inventory:low_stock"
)

// NewLowStockTask constructs the task for one alert. The task id is derived
// from the sale and product so a replayed publish is rejected by the queue.
func NewLowStockTask(alert sales.LowStockAlert) (*asynq.Task, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStock, data,
		asynq.TaskID("low-stock:"+alert.SaleID.String()+":"+alert.ProductRef.String()),
		asynq.MaxRetry(5),
	), nil
}
