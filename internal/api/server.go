package api

import (
	"net/http"
	"time"

	askapi "github.com/futig/docqa-backend/internal/api/ask"
	"github.com/futig/docqa-backend/internal/api/docs"
	"github.com/futig/docqa-backend/internal/api/middleware"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/ratelimit"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	askHandler *askapi.Handler,
	limiter *ratelimit.KeyedLimiter,
	requestTimeout time.Duration,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)               // Recover from panics
	r.Use(chimiddleware.RequestID)               // Add request ID
	r.Use(chimiddleware.RealIP)                  // Client address behind proxies
	r.Use(middleware.Logger(logger))             // Log requests
	r.Use(middleware.CORS)                       // Handle CORS
	r.Use(middleware.RateLimit(limiter))         // Per-client budget
	r.Use(chimiddleware.Timeout(requestTimeout)) // Bound provider calls

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, entity.HealthResponse{Status: "ok"})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	askapi.RegisterRoutes(r, askHandler)

	return r
}
