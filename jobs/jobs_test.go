package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/catalog"
	jobmetrics "github.com/retailpad/retailpad/internal/jobs"
	"github.com/retailpad/retailpad/internal/sales"
)

type stubItems struct {
	item catalog.Item
	err  error
}

func (s stubItems) Get(context.Context, uuid.UUID, uuid.UUID) (catalog.Item, error) {
	return s.item, s.err
}

func newAlert() sales.LowStockAlert {
	return sales.LowStockAlert{
		OwnerID:      uuid.New(),
		ProductRef:   uuid.New(),
		Name:         "Widget",
		Remaining:    1,
		ReorderPoint: 2,
		SaleID:       uuid.New(),
	}
}

func lowStockTask(t *testing.T, alert sales.LowStockAlert) *asynq.Task {
	t.Helper()
	task, err := NewLowStockTask(alert)
	require.NoError(t, err)
	require.Equal(t, TaskLowStock, task.Type())
	return task
}

func lowStockCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "retailpad_low_stock_alerts_total" {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestLowStockJobCountsConfirmedAlerts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	alert := newAlert()

	job := NewLowStockJob(stubItems{item: catalog.Item{StockQuantity: 2}}, logger, metrics)
	require.NoError(t, job.Handle(context.Background(), lowStockTask(t, alert)))
	require.Equal(t, 1.0, lowStockCount(t, reg))

	job.Items = stubItems{item: catalog.Item{StockQuantity: 40}}
	require.NoError(t, job.Handle(context.Background(), lowStockTask(t, alert)))
	require.Equal(t, 1.0, lowStockCount(t, reg))

	job.Items = stubItems{err: catalog.ErrNotFound}
	require.NoError(t, job.Handle(context.Background(), lowStockTask(t, alert)))
	require.Equal(t, 1.0, lowStockCount(t, reg))
}

func TestLowStockJobErrors(t *testing.T) {
	job := NewLowStockJob(stubItems{err: errors.New("db down")}, nil, nil)

	err := job.Handle(context.Background(), lowStockTask(t, newAlert()))
	require.ErrorContains(t, err, "db down")

	err = job.Handle(context.Background(), asynq.NewTask(TaskLowStock, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientPublishLowStock(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake}
	alert := newAlert()

	require.NoError(t, client.PublishLowStock(context.Background(), alert))
	require.Len(t, fake.tasks, 1)
	var got sales.LowStockAlert
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &got))
	require.Equal(t, alert, got)

	fake.err = asynq.ErrTaskIDConflict
	require.NoError(t, client.PublishLowStock(context.Background(), alert))

	fake.err = errors.New("redis down")
	require.Error(t, client.PublishLowStock(context.Background(), alert))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rr
	}

	rr := serve(&Handler{inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3}}, logger: logger})
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":3,"failed":0}`, rr.Body.String())

	rr = serve(&Handler{inspector: fakeInspector{err: errors.New("redis down")}, logger: logger})
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(NewHandler(nil, logger))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	require.Error(t, err)
}
