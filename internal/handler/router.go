package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basa-org/basa-events/internal/auth"
	"github.com/basa-org/basa-events/internal/model"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Events      *EventHandler
	Memberships *MembershipHandler
	Verifier    *auth.Verifier
	CORSOrigin  string
	Checks      map[string]Check
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)
	r.Use(CORS(cfg.CORSOrigin))

	r.Get("/health", HealthCheck(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Get("/", cfg.Events.ListEvents)
		r.Get("/{slug}", cfg.Events.GetEvent)
		r.Get("/{slug}/quote", cfg.Events.Quote)
	})
	r.Get("/tiers", cfg.Memberships.Tiers)

	r.Route("/payments/events", func(r chi.Router) {
		r.Post("/", cfg.Events.CreatePaymentIntent)
		r.Post("/confirm", cfg.Events.ConfirmPayment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(cfg.Verifier, model.RoleAdmin, model.RoleModerator))
			r.Get("/events/{id}/registrations", cfg.Events.ListRegistrations)
			r.Get("/members", cfg.Memberships.ListMembers)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(cfg.Verifier, model.RoleAdmin))
			r.Post("/events", cfg.Events.CreateEvent)
			r.Put("/events/{id}", cfg.Events.UpdateEvent)
			r.Post("/events/{id}/registrations", cfg.Events.AddRegistration)
			r.Post("/create-payment-intent", cfg.Memberships.CreatePaymentIntent)
			r.Post("/create-member-with-payment", cfg.Memberships.CreateMemberWithPayment)
		})
	})

	return r
}
