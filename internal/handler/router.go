package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Events         *EventHandler
	Participants   *ParticipantHandler
	Tokens         *auth.Tokens
	DB             Pinger
	Metrics        http.Handler
	Limiter        *rate.Limiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Logger))      // structured access log
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/health", HealthCheck(cfg.DB))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(Throttle(cfg.Limiter))
		}

		r.Post("/auth/signup", cfg.Participants.Signup)
		r.Post("/auth/login", cfg.Participants.Login)
		r.Get("/events", cfg.Events.ListEvents)
		r.Get("/events/{id}", cfg.Events.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(cfg.Tokens))

			r.Post("/events/{id}/register", cfg.Events.Register)
			r.Delete("/events/{id}/register", cfg.Events.Withdraw)
			r.Get("/me/registrations", cfg.Events.MyRegistrations)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Post("/events", cfg.Events.CreateEvent)
				r.Put("/events/{id}", cfg.Events.UpdateEvent)
				r.Delete("/events/{id}", cfg.Events.DeleteEvent)
				r.Get("/events/{id}/registrations", cfg.Events.ListRegistrations)
				r.Delete("/registrations/{id}", cfg.Events.RemoveRegistration)

				r.Post("/participants", cfg.Participants.Create)
				r.Get("/participants", cfg.Participants.List)
				r.Delete("/participants/{id}", cfg.Participants.Delete)

				r.Get("/admin/audit", cfg.Events.Audit)
			})
		})
	})

	return r
}
