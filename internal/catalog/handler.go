package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/platform/httpx"
	"github.com/retailpad/retailpad/internal/shared"
)

// Handler wires HTTP endpoints for the catalog.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/low-stock", h.lowStock)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/stock", h.adjustStock)
}

type itemResponse struct {
	Item
	StockStatus StockStatus `json:"stock_status"`
	Margin      *Margin     `json:"margin,omitempty"`
}

type listResponse struct {
	Items      []itemResponse    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

type adjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason,omitempty"`
}

func toResponse(it Item, defaultReorderPoint int) itemResponse {
	resp := itemResponse{Item: it, StockStatus: it.Status(defaultReorderPoint)}
	if m, ok := it.Margin(); ok {
		resp.Margin = &m
	}
	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	q := r.URL.Query()
	lowOnly, _ := strconv.ParseBool(q.Get("low_stock"))
	filter := ListFilter{
		Search:       q.Get("q"),
		Category:     q.Get("category"),
		LowStockOnly: lowOnly,
		Page:         shared.ParsePageRequest(q),
	}
	items, total, err := h.service.List(r.Context(), owner, filter)
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	h.respondList(w, r, items, total, filter.Page)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())
	page := shared.ParsePageRequest(r.URL.Query())
	items, total, err := h.service.LowStock(r.Context(), owner, page)
	if err != nil {
		h.fail(w, "list low stock items", err)
		return
	}
	h.respondList(w, r, items, total, page)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, items []Item, total int, page shared.PageRequest) {
	def := h.service.DefaultReorderPoint(r.Context(), auth.OwnerFromContext(r.Context()))
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toResponse(it, def))
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Items:      out,
		Pagination: shared.NewPagination(page.Page, page.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	item, err := h.service.Create(r.Context(), owner, input)
	if err != nil {
		h.fail(w, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(item, h.service.DefaultReorderPoint(r.Context(), owner)))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	item, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(item, h.service.DefaultReorderPoint(r.Context(), owner)))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var input UpdateItemInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	item, err := h.service.Update(r.Context(), owner, id, input)
	if err != nil {
		h.fail(w, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(item, h.service.DefaultReorderPoint(r.Context(), owner)))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), auth.OwnerFromContext(r.Context()), id); err != nil {
		h.fail(w, "delete item", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	var req adjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	owner := auth.OwnerFromContext(r.Context())
	item, err := h.service.AdjustStock(r.Context(), owner, id, req.Delta, req.Reason)
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	h.logger.Info("stock adjusted",
		slog.String("item_id", id.String()),
		slog.Int("delta", req.Delta),
		slog.Int("stock", item.StockQuantity))
	httpx.JSON(w, http.StatusOK, toResponse(item, h.service.DefaultReorderPoint(r.Context(), owner)))
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.ValidationProblem(w, err)
}
