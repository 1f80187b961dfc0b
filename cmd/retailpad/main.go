package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/retailpad/retailpad/internal/app"
	"github.com/retailpad/retailpad/internal/auth"
	"github.com/retailpad/retailpad/internal/catalog"
	"github.com/retailpad/retailpad/internal/observability"
	"github.com/retailpad/retailpad/internal/platform/cache"
	"github.com/retailpad/retailpad/internal/sales"
	"github.com/retailpad/retailpad/internal/settings"
	"github.com/retailpad/retailpad/internal/vendors"
	"github.com/retailpad/retailpad/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.String("driver", cfg.StoreDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	settingsService := settings.NewService(stores.Settings)
	vendorService := vendors.NewService(stores.Vendors, stores.Audit)
	catalogService := catalog.NewService(stores.Catalog, vendorService, settingsService, stores.Audit)

	engine := sales.NewEngine(sales.EngineConfig{
		Products: stores.Catalog,
		Store:    stores.Sales,
		Alerts:   jobClient,
		Audit:    stores.Audit,
		Metrics:  sales.NewMetrics(metrics.Registerer()),
		Logger:   logger,
	})
	salesService := sales.NewService(sales.ServiceConfig{
		Engine:   engine,
		Carts:    sales.NewCartStore(redisClient, cfg.CartTTL),
		Settings: settingsService,
		Store:    stores.Sales,
		Location: cfg.Location(),
		Logger:   logger,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Verifier:        auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer),
		CatalogHandler:  catalog.NewHandler(logger, catalogService),
		VendorHandler:   vendors.NewHandler(logger, vendorService),
		SettingsHandler: settings.NewHandler(logger, settingsService),
		SalesHandler:    sales.NewHandler(logger, salesService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
		Ready: func(r *http.Request) error {
			return stores.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
