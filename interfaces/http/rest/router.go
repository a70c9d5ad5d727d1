package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"plangraph/application/ports"
	"plangraph/application/services"
	"plangraph/infrastructure/config"
	"plangraph/interfaces/http/rest/handlers"
	"plangraph/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	coordinator *services.SyncCoordinator
	executor    ports.StatementExecutor
	cfg         *config.Config
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	coordinator *services.SyncCoordinator,
	executor ports.StatementExecutor,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		coordinator: coordinator,
		executor:    executor,
		cfg:         cfg,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler())
	}

	validate := validator.New()

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		planHandler := handlers.NewPlanHandler(rt.coordinator, validate, rt.logger)
		r.Post("/plans", planHandler.CreatePlan)

		graphHandler := handlers.NewGraphHandler(rt.coordinator, validate, rt.logger)
		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", graphHandler.ListGraphs)
			r.Get("/{graphID}", graphHandler.GetGraph)
			r.Get("/{graphID}/elements", graphHandler.GetGraphElements)
			r.Put("/{graphID}/elements", graphHandler.UpdateGraph)
			r.Delete("/{graphID}", graphHandler.DeleteGraph)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports whether the database collaborator is reachable.
// The service still accepts commits when it is not; persistence degrades to
// failure notifications.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := rt.executor.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","database":false}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready","database":true}`))
}
