package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/platform/httpx"
	"github.com/retailpad/retailpad/internal/shared"
)

// Handler wires HTTP endpoints for carts and sales.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountCartRoutes registers the cart session routes.
func (h *Handler) MountCartRoutes(r chi.Router) {
	r.Get("/", h.getCart)
	r.Delete("/", h.discardCart)
	r.Post("/lines", h.addLine)
	r.Patch("/lines/{lineID}", h.updateLine)
	r.Delete("/lines/{lineID}", h.removeLine)
	r.Post("/validate", h.validate)
	r.Post("/commit", h.commit)
}

// MountSalesRoutes registers the sale history routes.
func (h *Handler) MountSalesRoutes(r chi.Router) {
	r.Get("/", h.listSales)
	r.Get("/summary", h.summary)
	r.Get("/presence", h.presence)
	r.Get("/{id}", h.getSale)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Cart(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		h.fail(w, "load cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) discardCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardCart(r.Context(), auth.OwnerFromContext(r.Context())); err != nil {
		h.fail(w, "discard cart", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.ProductID == uuid.Nil {
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Errors: map[string]string{"product_id": "is required"},
		})
		return
	}
	v, err := h.service.AddToCart(r.Context(), auth.OwnerFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, "add cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := parseID(w, chi.URLParam(r, "lineID"), "line")
	if !ok {
		return
	}
	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.UpdateCartLine(r.Context(), auth.OwnerFromContext(r.Context()), lineID, req.toUpdate())
	if err != nil {
		h.fail(w, "update cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := parseID(w, chi.URLParam(r, "lineID"), "line")
	if !ok {
		return
	}
	v, err := h.service.RemoveCartLine(r.Context(), auth.OwnerFromContext(r.Context()), lineID)
	if err != nil {
		h.fail(w, "remove cart line", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.ValidateCart(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		h.fail(w, "validate cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, validateResponse{CartView: v, Valid: true})
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	owner := auth.OwnerFromContext(r.Context())
	sale, err := h.service.Checkout(r.Context(), owner, req.discount())
	if err != nil {
		h.fail(w, "commit cart", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.saleView(r, owner, sale))
}

// saleView adds formatted amounts. A settings failure only drops the
// formatting since the sale itself is already recorded.
func (h *Handler) saleView(r *http.Request, owner uuid.UUID, sale Sale) SaleView {
	v, err := h.service.ViewSale(r.Context(), owner, sale)
	if err != nil {
		h.logger.Warn("format sale", slog.String("sale_id", sale.ID.String()), slog.Any("error", err))
		return SaleView{Sale: sale}
	}
	return v
}

type listSalesResponse struct {
	Sales      []Sale            `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{From: q.Get("from"), To: q.Get("to"), Page: shared.ParsePageRequest(q)}
	list, total, err := h.service.ListSales(r.Context(), auth.OwnerFromContext(r.Context()), filter)
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	if list == nil {
		list = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, listSalesResponse{
		Sales:      list,
		Pagination: shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "sale")
	if !ok {
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	sale, err := h.service.GetSale(r.Context(), owner, id)
	if err != nil {
		h.fail(w, "get sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.saleView(r, owner, sale))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	days, err := h.service.DailySummary(r.Context(), auth.OwnerFromContext(r.Context()), from, to)
	if err != nil {
		h.fail(w, "sales summary", err)
		return
	}
	if days == nil {
		days = []DailySummary{}
	}
	httpx.JSON(w, http.StatusOK, summaryResponse{From: from, To: to, Days: days})
}

func (h *Handler) presence(w http.ResponseWriter, r *http.Request) {
	date, ok, err := h.service.HasSalesOn(r.Context(), auth.OwnerFromContext(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, "sales presence", err)
		return
	}
	httpx.JSON(w, http.StatusOK, presenceResponse{Date: date, HasSales: ok})
}

func parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var (
		stockErr   *StockError
		persistErr *PersistenceError
	)
	switch {
	case errors.As(err, &stockErr):
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Insufficient Stock",
			Status: http.StatusConflict,
			Detail: "not enough stock for: " + strings.Join(stockErr.Names(), ", "),
			Data:   stockErr.Lines,
		})
	case errors.As(err, &persistErr):
		h.logger.Error(op, slog.String("stage", string(persistErr.Stage)), slog.Any("error", err))
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Sale Not Recorded",
			Status: http.StatusServiceUnavailable,
			Detail: "the sale could not be saved; the cart was kept and the commit can be retried",
			Data:   map[string]string{"stage": string(persistErr.Stage)},
		})
	default:
		if !httpx.IsClientError(err) {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
