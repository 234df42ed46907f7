package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(chatHandler *ChatHandler, bookingHandler *BookingHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Accept both /chat and /chat/
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/chatbot", func(r chi.Router) {
			r.Post("/chat", chatHandler.ChatHandler)
			r.Get("/users/{userID}/sessions", chatHandler.ListSessionsHandler)
			r.Delete("/sessions/delete/{sessionID}", chatHandler.DeleteSessionHandler)
			r.Get("/venues", chatHandler.ListVenuesHandler)
			r.Post("/venues/recommendations", chatHandler.RecommendationsHandler)
			r.Get("/health", chatHandler.HealthHandler)
		})

		r.Route("/booking", func(r chi.Router) {
			r.Get("/venues", bookingHandler.ListVenuesHandler)
			r.Post("/venues", bookingHandler.CreateVenueHandler)
			r.Route("/venues/{venueID}", func(r chi.Router) {
				r.Get("/", bookingHandler.GetVenueHandler)
				r.Put("/", bookingHandler.UpdateVenueHandler)
				r.Delete("/", bookingHandler.DeleteVenueHandler)
				r.Get("/availability", bookingHandler.AvailabilityHandler)
			})

			r.Get("/bookings", bookingHandler.ListBookingsHandler)
			r.Post("/bookings", bookingHandler.CreateBookingHandler)
			r.Route("/bookings/{bookingID}", func(r chi.Router) {
				r.Get("/", bookingHandler.GetBookingHandler)
				r.Put("/", bookingHandler.UpdateBookingHandler)
				r.Delete("/", bookingHandler.CancelBookingHandler)
			})

			r.Get("/users/{userID}/bookings", bookingHandler.UserBookingsHandler)
		})
	})

	return r
}
