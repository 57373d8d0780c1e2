package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-hotel-booking/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP routes with the global middleware stack.
func NewRouter(h *BookingHandler, tokens *auth.Tokens, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/booking", func(r chi.Router) {
		r.Use(Authenticate(tokens))
		r.Get("/", h.GetBooking)
		r.Post("/", h.CreateBooking)
		r.Put("/{bookingId}", h.UpdateBooking)
		r.Get("/rooms/{roomId}", h.RoomOccupancy)
	})

	return r
}
