package routes

import (
	"log/slog"
	"net/http"

	"github.com/SachinRathod0101/Time-left-backend/internal/config"
	"github.com/SachinRathod0101/Time-left-backend/internal/handlers"
	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        middleware.Authenticator
	Users       *handlers.UserHandler
	Events      *handlers.EventHandler
	Icebreakers *handlers.IcebreakerHandler
	Payments    *handlers.PaymentHandler
	Feed        *handlers.EventFeedHandler

	// RateLimit is the shared per-IP limiter; nil disables it.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter builds the chi router with the global middleware stack and every route.
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Get("/ws/events/{id}", h.Feed.ServeFeed)

	r.Route("/api", func(r chi.Router) {
		if h.RateLimit != nil {
			r.Use(h.RateLimit)
		}
		SetupRoutes(r, h)
	})

	return r
}

// SetupRoutes registers the /api routes on r.
func SetupRoutes(r chi.Router, h Handlers) {
	requireAuth := middleware.RequireAuth(h.Auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Public
	r.Post("/users", h.Users.Register)
	r.Post("/users/login", h.Users.Login)
	r.Post("/admin/login", h.Users.AdminLogin)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/users/logout", h.Users.Logout)
		r.Get("/users/me", h.Users.GetMe)
		r.Put("/users/me", h.Users.UpdateMe)
		r.Put("/users/me/photo", h.Users.UpdatePhoto)
		r.With(adminOnly).Get("/users", h.Users.ListUsers)
		r.With(adminOnly).Get("/users/{id}", h.Users.GetUser)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.Events.CreateEvent)
			r.Get("/", h.Events.ListEvents)
			r.Get("/{id}", h.Events.GetEvent)
			r.Put("/{id}", h.Events.UpdateEvent)
			r.Delete("/{id}", h.Events.DeleteEvent)
			r.Put("/{id}/join", h.Events.JoinEvent)
			r.Put("/{id}/leave", h.Events.LeaveEvent)
			r.With(adminOnly).Put("/{id}/approve", h.Events.ApproveEvent)
			r.With(adminOnly).Put("/{id}/reject", h.Events.RejectEvent)
			r.Post("/{id}/icebreakers", h.Events.AttachIcebreaker)
			r.Delete("/{id}/icebreakers/{icebreakerId}", h.Events.DetachIcebreaker)
		})

		r.Route("/icebreakers", func(r chi.Router) {
			r.Post("/", h.Icebreakers.CreateIcebreaker)
			r.Get("/", h.Icebreakers.ListIcebreakers)
			r.Get("/{id}", h.Icebreakers.GetIcebreaker)
			r.Put("/{id}", h.Icebreakers.UpdateIcebreaker)
			r.Delete("/{id}", h.Icebreakers.DeleteIcebreaker)
		})

		r.Post("/payments/create-order", h.Payments.CreateOrder)
	})
}
