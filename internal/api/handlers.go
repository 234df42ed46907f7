package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/core"
	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
)

type ChatHandler struct {
	chatService    *core.ChatService
	bookingService *core.BookingService
	logger         *zap.Logger
}

func NewChatHandler(cs *core.ChatService, bs *core.BookingService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: cs, bookingService: bs, logger: logging.OrNop(logger)}
}

func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.chatService.SendMessage(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, "Failed to process chat message")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.ListSessions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err, "Failed to list sessions")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *ChatHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := idParam(w, r, "sessionID")
	if !ok {
		return
	}
	if err := h.chatService.DeleteSession(r.Context(), sessionID); err != nil {
		h.fail(w, r, err, "Failed to delete session")
		return
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Session deleted successfully"})
}

func (h *ChatHandler) ListVenuesHandler(w http.ResponseWriter, r *http.Request) {
	venues, err := h.bookingService.AvailableVenues(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to list venues")
		return
	}
	respondJSON(w, http.StatusOK, venues)
}

func (h *ChatHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	resp, err := h.chatService.Recommendations(r.Context(), req.Message)
	if err != nil {
		h.fail(w, r, err, "Failed to get recommendations")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := h.chatService.Health(r.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}

func (h *ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	handleServiceError(w, r, h.logger, err, fallback)
}

// statusFor maps service sentinels to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrVenueNotFound),
		errors.Is(err, core.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrVenueUnavailable):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyMessage),
		errors.Is(err, core.ErrMissingUser),
		errors.Is(err, core.ErrInvalidVenue),
		errors.Is(err, core.ErrInvalidTimeRange),
		errors.Is(err, core.ErrStartInPast),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrAlreadyCancelled),
		errors.Is(err, core.ErrCannotCancel):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	code := statusFor(err)
	if code != http.StatusInternalServerError {
		respondError(w, code, err.Error())
		return
	}
	logger.Error(fallback, zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, code, fallback)
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, models.ErrorResponse{Error: message})
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
