package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/recruitflow/booking-engine/internal/booking"
	httpmiddleware "github.com/recruitflow/booking-engine/internal/http/middleware"
	"github.com/recruitflow/booking-engine/internal/ops"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	BookingHandler *booking.Handler
	OpsHandler     *ops.Handler
	MetricsHandler http.Handler

	// RateLimit guards the public token-addressed routes. Optional.
	RateLimit func(http.Handler) http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public candidate-facing routes, addressed by capability token.
	r.Group(func(public chi.Router) {
		if cfg.RateLimit != nil {
			public.Use(cfg.RateLimit)
		}
		public.Route("/booking/{token}", func(r chi.Router) {
			r.Get("/availability", cfg.BookingHandler.GetAvailability)
			r.Get("/slots", cfg.BookingHandler.GetTimeSlots)
			r.Post("/", cfg.BookingHandler.SubmitBooking)
		})
	})

	// Recruiter-facing management routes.
	if cfg.OpsHandler != nil {
		r.Route("/ops", func(r chi.Router) {
			r.Post("/links", cfg.OpsHandler.CreateLink)
			r.Post("/links/{id}/revoke", cfg.OpsHandler.RevokeLink)
			r.Get("/availability/{kind}", cfg.OpsHandler.GetAvailabilityConfig)
			r.Put("/availability/{kind}", cfg.OpsHandler.PutAvailabilityConfig)
			r.Get("/blocks", cfg.OpsHandler.GetBlocks)
			r.Put("/blocks", cfg.OpsHandler.PutBlocks)
			r.Post("/candidates/{id}/status", cfg.OpsHandler.SetCandidateStatus)
			r.Post("/interviews/{id}/resolve", cfg.OpsHandler.ResolveInterview)
			r.Post("/sweeps/{name}/run", cfg.OpsHandler.RunSweep)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
