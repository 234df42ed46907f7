package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/core"
	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
)

type BookingHandler struct {
	bookingService *core.BookingService
	logger         *zap.Logger
}

func NewBookingHandler(bs *core.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bs, logger: logging.OrNop(logger)}
}

func (h *BookingHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	handleServiceError(w, r, h.logger, err, fallback)
}

func (h *BookingHandler) ListVenuesHandler(w http.ResponseWriter, r *http.Request) {
	var filter models.VenueFilter
	q := r.URL.Query()
	if v := q.Get("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid min_capacity")
			return
		}
		filter.MinCapacity = n
	}
	if v := q.Get("max_rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid max_rate")
			return
		}
		filter.MaxRate = f
	}

	venues, err := h.bookingService.ListVenues(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "Failed to list venues")
		return
	}
	respondJSON(w, http.StatusOK, venues)
}

func (h *BookingHandler) CreateVenueHandler(w http.ResponseWriter, r *http.Request) {
	var in models.VenueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	venue, err := h.bookingService.CreateVenue(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create venue")
		return
	}
	respondJSON(w, http.StatusCreated, venue)
}

func (h *BookingHandler) GetVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, ok := idParam(w, r, "venueID")
	if !ok {
		return
	}
	venue, err := h.bookingService.GetVenue(r.Context(), venueID)
	if err != nil {
		h.fail(w, r, err, "Failed to get venue")
		return
	}
	respondJSON(w, http.StatusOK, venue)
}

func (h *BookingHandler) UpdateVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, ok := idParam(w, r, "venueID")
	if !ok {
		return
	}
	var in models.VenueInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	venue, err := h.bookingService.UpdateVenue(r.Context(), venueID, in)
	if err != nil {
		h.fail(w, r, err, "Failed to update venue")
		return
	}
	respondJSON(w, http.StatusOK, venue)
}

func (h *BookingHandler) DeleteVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, ok := idParam(w, r, "venueID")
	if !ok {
		return
	}
	if err := h.bookingService.DeleteVenue(r.Context(), venueID); err != nil {
		h.fail(w, r, err, "Failed to delete venue")
		return
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Venue deleted successfully"})
}

func (h *BookingHandler) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	venueID, ok := idParam(w, r, "venueID")
	if !ok {
		return
	}
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start_time"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_time must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end_time"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_time must be an RFC 3339 timestamp")
		return
	}

	avail, err := h.bookingService.CheckAvailability(r.Context(), venueID, start, end)
	if err != nil {
		h.fail(w, r, err, "Failed to check availability")
		return
	}
	respondJSON(w, http.StatusOK, avail)
}

func (h *BookingHandler) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	filter := models.BookingFilter{
		UserID: r.URL.Query().Get("user_id"),
		Status: models.BookingStatus(r.URL.Query().Get("status")),
	}
	bookings, err := h.bookingService.ListBookings(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "Failed to list bookings")
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}

func (h *BookingHandler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingService.CreateBooking(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to create booking")
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	booking, err := h.bookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.fail(w, r, err, "Failed to get booking")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) UpdateBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	var upd models.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	booking, err := h.bookingService.UpdateBooking(r.Context(), bookingID, upd)
	if err != nil {
		h.fail(w, r, err, "Failed to update booking")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

// CancelBookingHandler serves DELETE on a booking. The row is kept with status cancelled.
func (h *BookingHandler) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	booking, err := h.bookingService.CancelBooking(r.Context(), bookingID)
	if err != nil {
		h.fail(w, r, err, "Failed to cancel booking")
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) UserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.UserBookings(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err, "Failed to list user bookings")
		return
	}
	respondJSON(w, http.StatusOK, bookings)
}
