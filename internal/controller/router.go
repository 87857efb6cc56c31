package controller

import (
	"time"

	"github.com/fredcarvalho/notafiscal/internal/infrastructure/config"
	"github.com/fredcarvalho/notafiscal/internal/infrastructure/observability"
	customMW "github.com/fredcarvalho/notafiscal/internal/middleware"
	"github.com/fredcarvalho/notafiscal/internal/repository/postgres"
	"github.com/fredcarvalho/notafiscal/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	ProfileService  *service.ProfileService
	SequenceService *service.SequenceService
	DocumentService *service.DocumentService
	ChargeService   *service.ChargeService
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	ServerConfig    config.ServerConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.ServerConfig.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.ServerConfig.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.ServerConfig.RateLimitPerMinute > 0 {
		r.Use(customMW.RateLimit(deps.ServerConfig.RateLimitPerMinute))
	}
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	profileH := NewProfileController(deps.ProfileService, deps.SequenceService)
	documentH := NewDocumentController(deps.DocumentService)
	chargeH := NewChargeController(deps.ChargeService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating endpoints.
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

		// Fiscal profiles
		r.Post("/profiles", profileH.Create)
		r.Get("/profiles/{sellerID}", profileH.Get)
		r.Patch("/profiles/{sellerID}", profileH.Update)
		r.Post("/profiles/{sellerID}/advance-lot", profileH.AdvanceLot)

		// Invoices
		r.With(idempotencyMW).Post("/invoices", documentH.Submit)
		r.Get("/invoices", documentH.List)
		r.Get("/invoices/{id}", documentH.Get)
		r.Post("/invoices/{id}/poll", documentH.Poll)
		r.Post("/invoices/{id}/send", documentH.Send)
		r.Post("/invoices/{id}/cancel", documentH.Cancel)
		r.Post("/invoices/{id}/retry", documentH.Retry)

		// Payment charges
		r.With(idempotencyMW).Post("/invoices/{id}/charge", chargeH.Create)
		r.Get("/charges/{correlationID}", chargeH.Get)
		r.Post("/charges/{correlationID}/mark-paid", chargeH.MarkPaid)
	})

	return r
}
