package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/catalog"
	"github.com/retailpad/retailpad/internal/observability"
	"github.com/retailpad/retailpad/internal/sales"
	"github.com/retailpad/retailpad/internal/settings"
	"github.com/retailpad/retailpad/internal/vendors"
	"github.com/retailpad/retailpad/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Verifier        *auth.Verifier
	CatalogHandler  *catalog.Handler
	VendorHandler   *vendors.Handler
	SettingsHandler *settings.Handler
	SalesHandler    *sales.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
	// Ready reports store connectivity for /healthz. Nil means always ready.
	Ready func(r *http.Request) error
}

// NewRouter constructs the chi.Router with retailpad defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				params.Logger.Warn("health check", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(params.Verifier, params.Logger))
		if params.CatalogHandler != nil {
			r.Route("/items", params.CatalogHandler.MountRoutes)
		}
		if params.VendorHandler != nil {
			r.Route("/vendors", params.VendorHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
		if params.SalesHandler != nil {
			r.Route("/cart", params.SalesHandler.MountCartRoutes)
			r.Route("/sales", params.SalesHandler.MountSalesRoutes)
		}
	})

	return r
}
