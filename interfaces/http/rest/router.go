package rest

import (
	"net/http"

	"roadmap-backend/application/services"
	"roadmap-backend/infrastructure/credentials"
	"roadmap-backend/interfaces/http/rest/handlers"
	"roadmap-backend/interfaces/http/rest/middleware"
	"roadmap-backend/interfaces/http/web"
	"roadmap-backend/pkg/auth"
	"roadmap-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	store         *credentials.Store
	tokens        *auth.TokenManager
	service       *services.RoadmapService
	metrics       *observability.Metrics
	logger        *zap.Logger
	enableCORS    bool
	enableMetrics bool
}

// NewRouter creates a new router instance
func NewRouter(
	store *credentials.Store,
	tokens *auth.TokenManager,
	service *services.RoadmapService,
	metrics *observability.Metrics,
	logger *zap.Logger,
	enableCORS bool,
	enableMetrics bool,
) *Router {
	return &Router{
		store:         store,
		tokens:        tokens,
		service:       service,
		metrics:       metrics,
		logger:        logger,
		enableCORS:    enableCORS,
		enableMetrics: enableMetrics,
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

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	cookieName := rt.store.CookieConfig().Name
	session := middleware.Session(rt.tokens, cookieName)

	// Health checks and metrics
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.enableMetrics {
		router.Method("GET", "/metrics", rt.metrics.Handler())
	}

	// Server-rendered UI
	webHandler := web.NewHandler(rt.store, rt.tokens, rt.service, rt.metrics, rt.logger)
	router.Group(func(r chi.Router) {
		r.Use(session)
		r.Get("/", webHandler.Home)
		r.Post("/login", webHandler.Login)
		r.Post("/guest", webHandler.Guest)
		r.Post("/register", webHandler.Register)
		r.Post("/logout", webHandler.Logout)
		r.Post("/generate", webHandler.Generate)
		r.Post("/export", webHandler.Export)
		r.Get("/roadmaps/{roadmapID}", webHandler.ShowRoadmap)
		r.Get("/roadmaps/{roadmapID}/pdf", webHandler.DownloadPDF)
	})

	// JSON API
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(session)

		authHandler := handlers.NewAuthHandler(rt.store, rt.tokens, rt.metrics, rt.logger)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/guest", authHandler.Guest)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
		})

		roadmapHandler := handlers.NewRoadmapHandler(rt.service, rt.metrics, rt.logger)
		r.Route("/roadmaps", func(r chi.Router) {
			r.Use(middleware.RequireSession())
			r.Post("/", roadmapHandler.Generate)
			r.Get("/", roadmapHandler.List)
			r.Get("/{roadmapID}", roadmapHandler.Get)
			r.Get("/{roadmapID}/pdf", roadmapHandler.DownloadPDF)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
