package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Vjnishad/mescon/internal/api/middleware"
	"github.com/Vjnishad/mescon/internal/auth"
	"github.com/Vjnishad/mescon/internal/handlers"
	"github.com/Vjnishad/mescon/internal/relay"
	"github.com/Vjnishad/mescon/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	logger zerolog.Logger,
	h *handlers.Handler,
	wsHandler *relay.Handler,
	tokens *auth.Tokens,
	redisStore *store.RedisStore,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting on login endpoints, only when Redis is available
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger)
		r.Use(limiter.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authmw := middleware.NewAuthMiddleware(tokens)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Post("/auth/send-otp", h.SendOTP)
	r.Post("/auth/verify-otp", h.VerifyOTP)

	// Websocket endpoint: the credential travels as a query parameter and is
	// verified before the upgrade, inside the handler.
	r.Get("/chat/ws", wsHandler.ServeWS)

	// Authenticated routes (require bearer token)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth)

		r.Get("/chat/history", h.GetHistory)

		r.Get("/api/users", h.ListContacts)
		r.Post("/api/contacts", h.AddContact)
		r.Put("/api/contacts/{id}", h.UpdateContact)
		r.Delete("/api/contacts/{id}", h.DeleteContact)

		r.Get("/api/profile", h.GetProfile)
		r.Put("/api/profile", h.UpdateProfile)
	})

	return r
}

// CheckOrigin builds the websocket origin check from the CORS allow-list.
func CheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin header.
		return origin == "" || allowed[origin]
	}
}
