package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/platform/httpx"
)

// Handler wires HTTP endpoints for business settings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs settings handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.put)
}

type settingsResponse struct {
	Settings
	CurrencyScale int32 `json:"currency_scale"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, st Settings) {
	policy, err := h.service.Policy(r.Context(), st.OwnerID)
	if err != nil {
		h.logger.Error("resolve money policy", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsResponse{Settings: st, CurrencyScale: policy.Scale})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		h.logger.Error("get settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.respond(w, r, st)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	st, err := h.service.Upsert(r.Context(), auth.OwnerFromContext(r.Context()), input)
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("save settings", slog.Any("error", err))
		}
		httpx.ValidationProblem(w, err)
		return
	}
	h.respond(w, r, st)
}
