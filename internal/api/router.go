package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/casadoar/payrecon/internal/api/handlers"
	mw "github.com/casadoar/payrecon/internal/api/middleware"
	"github.com/casadoar/payrecon/internal/buildconfig"
	"github.com/casadoar/payrecon/internal/config"
	"github.com/casadoar/payrecon/internal/domain"
	"github.com/casadoar/payrecon/internal/provider"
	"github.com/casadoar/payrecon/internal/service"
	"github.com/casadoar/payrecon/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router     *chi.Mux
	Reconciler *service.Reconciler
	Sweeper    *service.DedupSweeper
	metrics    *mw.Metrics
	startTime  time.Time
}

// NewApp wires the reconciliation engine behind the HTTP routes.
// notifications may be nil, which disables the audit trail.
func NewApp(records domain.RecordStore, notifications domain.NotificationLogStore, logger *zap.Logger) *App {
	statuses := provider.DefaultStatusMap()
	if path := config.StatusMapFile(); path != "" {
		m, err := provider.LoadStatusMap(path)
		if err != nil {
			logger.Warn("status map load failed, using defaults", zap.String("path", path), zap.Error(err))
		} else {
			statuses = m
			logger.Info("status map loaded", zap.String("path", path), zap.Int("entries", m.Len()))
		}
	}

	providers := provider.NewRegistry(provider.Config{
		EfiClientID:     config.EfiClientID(),
		EfiClientSecret: config.EfiClientSecret(),
		GenericSecret:   config.WebhookSecret(),
		Statuses:        statuses,
	})
	logger.Info("webhook providers configured",
		zap.Strings("providers", providers.Names()),
		zap.Bool("generic", config.WebhookSecret() != ""),
	)

	// Services
	dedup := service.NewDeduplicator(config.DedupCapacity(), config.DedupTTL())
	reconciler := service.NewReconciler(records, dedup, logger)
	if notifications != nil {
		reconciler.SetNotificationLog(notifications)
	}
	recordSvc := service.NewRecordService(records, notifications)
	sweeper := service.NewDedupSweeper(dedup, logger)
	sweeper.SetInterval(config.DedupSweepInterval())

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(providers, reconciler, logger)
	recordHandler := handlers.NewRecordHandler(recordSvc, reconciler)

	r := chi.NewRouter()

	app := &App{
		Router:     r,
		Reconciler: reconciler,
		Sweeper:    sweeper,
		metrics:    mw.NewMetrics(),
		startTime:  time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(records))
	r.Get("/metrics", app.metricsHandler())

	// Provider webhooks, authenticated by signature. Efí appends /pix to the
	// registered URL.
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))
		r.Post("/webhook/{provider}", webhookHandler.Receive)
		r.Post("/webhook/{provider}/pix", webhookHandler.Receive)
	})

	r.Route("/v1/records", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.AdminAPIKey()))

		r.Post("/", recordHandler.Create)
		r.Get("/", recordHandler.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recordHandler.GetByID)
			r.Get("/notifications", recordHandler.History)
			r.Post("/reconcile", recordHandler.Reconcile)
		})
	})

	return app
}

func healthHandler(records domain.RecordStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := buildconfig.Get()
		if err := records.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error(), "version": info.Version})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": info.Version, "commit": info.Commit})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		dedup := app.Reconciler.Deduplicator()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"http":           app.metrics.Snapshot(),
			"reconciliation": app.Reconciler.Stats(),
			"dedup": map[string]int{
				"entries":  dedup.Len(),
				"capacity": dedup.Capacity(),
			},
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and webhooks satisfy interfaces at compile time.
var (
	_ domain.RecordStore          = (*store.RecordStore)(nil)
	_ domain.NotificationLogStore = (*store.NotificationLogStore)(nil)
	_ handlers.Reconciler         = (*service.Reconciler)(nil)
	_ provider.Webhook            = (*provider.EfiWebhook)(nil)
	_ provider.Webhook            = (*provider.GenericWebhook)(nil)
)
