package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/money"
)

type stubSettings struct {
	policy money.Policy
}

func (s stubSettings) Policy(context.Context, uuid.UUID) (money.Policy, error) {
	return s.policy, nil
}

func (s stubSettings) DefaultReorderPoint(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

type handlerEnv struct {
	*fixture
	router http.Handler
	carts  *CartStore
}

func newHandlerEnv(t *testing.T, widgetStock, gadgetStock int) *handlerEnv {
	t.Helper()
	f := newFixture(widgetStock, gadgetStock)
	carts, _ := newTestCartStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(ServiceConfig{
		Engine:   f.engine,
		Carts:    carts,
		Settings: stubSettings{policy: money.DefaultPolicy},
		Store:    f.store,
		Logger:   logger,
	})
	h := NewHandler(logger, svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.ContextWithIdentity(req.Context(), auth.Identity{OwnerID: f.owner})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/cart", h.MountCartRoutes)
	r.Route("/sales", h.MountSalesRoutes)
	return &handlerEnv{fixture: f, router: r, carts: carts}
}

func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) CartView {
	t.Helper()
	var v CartView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHandlerCartFlowAndCommit(t *testing.T) {
	env := newHandlerEnv(t, 3, 4)

	rr := env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": env.widget.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": env.gadget.ID})
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	require.Len(t, v.Cart.Lines, 2)
	require.Equal(t, 1, v.Cart.Lines[1].Quantity)
	requireDec(t, "55", v.Totals.Subtotal)
	require.Equal(t, "USD", v.Formatted.Currency)
	require.Equal(t, "USD 55.00", v.Formatted.Subtotal)

	rr = env.do(t, http.MethodPost, "/cart/validate", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/cart/commit", map[string]any{"overall_discount": "5"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sale SaleView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sale))
	requireDec(t, "50", sale.FinalTotal)
	require.Equal(t, "USD 50.00", sale.Formatted.FinalTotal)
	require.Len(t, sale.Items, 2)
	require.Equal(t, 0, env.widget.StockQuantity)

	rr = env.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeView(t, rr).Cart.Lines)

	rr = env.do(t, http.MethodGet, "/sales/"+sale.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlerUpdateLineClampsMalformedInput(t *testing.T) {
	env := newHandlerEnv(t, 10, 10)
	rr := env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": env.widget.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	lineID := decodeView(t, rr).Cart.Lines[0].ID

	rr = env.do(t, http.MethodPatch, "/cart/lines/"+lineID.String(), map[string]any{
		"quantity":         "abc",
		"unit_price":       -4,
		"discount_percent": 250,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	line := decodeView(t, rr).Cart.Lines[0]
	require.Equal(t, 1, line.Quantity)
	requireDec(t, "0", line.UnitPrice)
	requireDec(t, "100", line.DiscountPercent)

	rr = env.do(t, http.MethodPatch, "/cart/lines/"+uuid.NewString(), map[string]any{"quantity": 2})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/cart/lines/"+lineID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, decodeView(t, rr).Cart.Lines)
}

func TestHandlerCommitErrors(t *testing.T) {
	env := newHandlerEnv(t, 3, 0)

	rr := env.do(t, http.MethodPost, "/cart/commit", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": env.gadget.ID, "quantity": 1})

	rr = env.do(t, http.MethodPost, "/cart/validate", nil)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, "/cart/commit", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	var problem struct {
		Title string           `json:"title"`
		Data  []StockShortfall `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Equal(t, "Insufficient Stock", problem.Title)
	require.Len(t, problem.Data, 1)
	require.Equal(t, "Gadget", problem.Data[0].Name)

	env.gadget.StockQuantity = 5
	env.store.failStage = StageCreateItems
	rr = env.do(t, http.MethodPost, "/cart/commit", nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "create_items")

	cart, err := env.carts.Load(context.Background(), env.owner)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
}

func TestHandlerAddLineValidation(t *testing.T) {
	env := newHandlerEnv(t, 1, 1)

	rr := env.do(t, http.MethodPost, "/cart/lines", map[string]any{"quantity": 1})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": uuid.New()})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/cart/lines", map[string]any{"product_id": env.widget.ID, "bogus": true})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerPresenceAndDates(t *testing.T) {
	env := newHandlerEnv(t, 1, 1)

	rr := env.do(t, http.MethodGet, "/sales/presence?date=2026-03-14", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var presence presenceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &presence))
	require.Equal(t, "2026-03-14", presence.Date)
	require.False(t, presence.HasSales)

	rr = env.do(t, http.MethodGet, "/sales/presence?date=14-03-2026", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/sales?from=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodGet, "/sales/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServiceCheckoutResetsCartWhenDiscardFails(t *testing.T) {
	f := newFixture(10, 10)
	ctx := context.Background()
	carts := &failingDiscard{}
	require.NoError(t, carts.Save(ctx, f.owner, f.cart(t)))
	svc := NewService(ServiceConfig{
		Engine:   f.engine,
		Carts:    carts,
		Settings: stubSettings{policy: money.DefaultPolicy},
		Store:    f.store,
		Location: time.UTC,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	first, err := svc.Checkout(ctx, f.owner, d("0"))
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, 1, carts.discards)

	v, err := svc.Cart(ctx, f.owner)
	require.NoError(t, err)
	require.Empty(t, v.Cart.Lines)
	require.NotEqual(t, first.IdempotencyKey, v.Cart.CommitToken)

	_, err = svc.AddToCart(ctx, f.owner, f.gadget.ID, 5)
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, f.owner, d("0"))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	requireDec(t, "125", second.FinalTotal)
	require.Equal(t, 4, f.gadget.StockQuantity)
	require.Len(t, f.store.sales, 2)
}

// failingDiscard keeps the cart as JSON the way the Redis store does, and
// never manages to delete it.
type failingDiscard struct {
	raw      []byte
	discards int
}

func (f *failingDiscard) Load(context.Context, uuid.UUID) (*Cart, error) {
	if f.raw == nil {
		return NewCart(), nil
	}
	var cart Cart
	if err := json.Unmarshal(f.raw, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (f *failingDiscard) Save(_ context.Context, _ uuid.UUID, cart *Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	f.raw = raw
	return nil
}

func (f *failingDiscard) Discard(context.Context, uuid.UUID) error {
	f.discards++
	return errors.New("redis unavailable")
}
