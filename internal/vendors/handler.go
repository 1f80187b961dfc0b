package vendors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/platform/httpx"
	"github.com/retailpad/retailpad/internal/shared"
)

// Handler wires HTTP endpoints for vendors.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs vendors handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers vendor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type listResponse struct {
	Vendors    []Vendor          `json:"vendors"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("q"), Page: shared.ParsePageRequest(q)}
	out, total, err := h.service.List(r.Context(), auth.OwnerFromContext(r.Context()), filter)
	if err != nil {
		h.fail(w, "list vendors", err)
		return
	}
	if out == nil {
		out = []Vendor{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Vendors:    out,
		Pagination: shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input VendorInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Create(r.Context(), auth.OwnerFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create vendor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := vendorID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), auth.OwnerFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := vendorID(w, r)
	if !ok {
		return
	}
	var input VendorInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Update(r.Context(), auth.OwnerFromContext(r.Context()), id, input)
	if err != nil {
		h.fail(w, "update vendor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := vendorID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), auth.OwnerFromContext(r.Context()), id); err != nil {
		h.fail(w, "delete vendor", err)
		return
	}
	httpx.NoContent(w)
}

func vendorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vendor id")
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
