package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/handlers"
	mw "github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/api/middleware"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/buildconfig"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/config"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/embedding"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/service"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/similarity"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router        *chi.Mux
	Contradiction *service.ContradictionService
	Timeline      *service.TimelineAuditor
	startTime     time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	profileStore := store.NewProfileStore(db)
	claimStore := store.NewClaimStore(db)

	// External collaborators via provider factories
	var embeddingClient domain.EmbeddingClient
	var err error

	embeddingClient, err = embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed", zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	similarityClient, err := similarity.NewClient(config.SimilarityProvider(), claimStore, embeddingClient)
	if err != nil {
		logger.Warn("similarity client initialization failed", zap.String("provider", config.SimilarityProvider()), zap.Error(err))
	} else {
		logger.Info("similarity client initialized", zap.String("provider", config.SimilarityProvider()))
	}

	// Services
	confidenceEngine := service.NewConfidenceEngine(claimStore, logger)
	laneClassifier := service.NewLaneClassifier()
	contradictionSvc := service.NewContradictionService(claimStore, service.KeywordHeuristic{}, logger)
	claimSvc := service.NewClaimService(claimStore, confidenceEngine, laneClassifier, similarityClient, service.KeywordHeuristic{}, logger)
	timelineAuditor := service.NewTimelineAuditor(claimStore, logger)
	retrievalSvc := service.NewRetrievalService(claimStore, logger)

	if embeddingClient != nil {
		claimSvc.SetEmbedder(embeddingClient)
	}

	// Handlers
	profileHandler := handlers.NewProfileHandler(profileStore)
	claimHandler := handlers.NewClaimHandler(claimSvc, confidenceEngine)
	conflictHandler := handlers.NewConflictHandler(contradictionSvc)
	auditHandler := handlers.NewAuditHandler(timelineAuditor)
	retrievalHandler := handlers.NewRetrievalHandler(retrievalSvc)

	r := chi.NewRouter()

	app := &App{
		Router:        r,
		Contradiction: contradictionSvc,
		Timeline:      timelineAuditor,
		startTime:     time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Profile creation (no auth, bootstrap endpoint)
	r.Post("/v1/profiles", profileHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(profileStore))

		r.Route("/claims", func(r chi.Router) {
			r.Post("/", claimHandler.Upsert)
			r.Post("/protected", claimHandler.AddProtected)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", claimHandler.GetByID)
				r.Put("/", claimHandler.Edit)
				r.Delete("/", claimHandler.Purge)
				r.Post("/boost", claimHandler.Boost)
				r.Post("/deprecate", claimHandler.Deprecate)
				r.Post("/quality", claimHandler.SetQuality)
			})
		})

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", conflictHandler.List)
			r.Post("/resolve", conflictHandler.Resolve)
			r.Post("/dismiss", conflictHandler.Dismiss)
		})

		r.Post("/audit/timeline", auditHandler.RunTimeline)
		r.Get("/audit/events/{ref}", auditHandler.EventClaims)

		r.Post("/retrieval/context", retrievalHandler.Context)
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage no lifecycle.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy interfaces at compile time.
var (
	_ domain.ProfileStore = (*store.ProfileStore)(nil)
	_ domain.ClaimStore   = (*store.ClaimStore)(nil)
)
