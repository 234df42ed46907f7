package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/venue-assistant/internal/api"
	"gwi.com/venue-assistant/internal/core"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rag := core.NewRAGService(db, nil, nil)
	bookings := core.NewBookingService(db, rag, nil)
	_, err = bookings.EnsureSampleVenues(context.Background())
	require.NoError(t, err)
	chat := core.NewChatService(db, rag, nil, nil)

	return api.NewRouter(api.NewChatHandler(chat, bookings, nil), api.NewBookingHandler(bookings, nil), []string{"http://localhost:3000"})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestChatRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/chatbot/chat/", models.ChatRequest{Message: "hello", UserID: "user-123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chat := decode[models.ChatResponse](t, rec)
	assert.NotZero(t, chat.SessionID)
	assert.Contains(t, chat.Response, "Hello!")

	rec = do(t, h, http.MethodGet, "/api/chatbot/users/user-123/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decode[[]models.ChatSession](t, rec)
	require.Len(t, sessions, 1)
	assert.Len(t, sessions[0].Messages, 2)

	rec = do(t, h, http.MethodDelete, "/api/chatbot/sessions/delete/"+itoa(chat.SessionID)+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Session deleted successfully", decode[models.MessageResponse](t, rec).Message)

	rec = do(t, h, http.MethodDelete, "/api/chatbot/sessions/delete/"+itoa(chat.SessionID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode[models.ErrorResponse](t, rec).Error)
}

func TestChatErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/chatbot/chat", models.ChatRequest{Message: "  ", UserID: "user-123"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message is required", decode[models.ErrorResponse](t, rec).Error)

	missing := int64(42)
	rec = do(t, h, http.MethodPost, "/api/chatbot/chat", models.ChatRequest{Message: "hi", UserID: "user-123", SessionID: &missing})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode[models.ErrorResponse](t, rec).Error)

	req := httptest.NewRequest(http.MethodPost, "/api/chatbot/chat", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[models.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodDelete, "/api/chatbot/sessions/delete/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatbotVenuesAndHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/chatbot/venues", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Venue](t, rec), 3)

	rec = do(t, h, http.MethodPost, "/api/chatbot/venues/recommendations", models.RecommendationRequest{Message: "an outdoor concert"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[models.RecommendationResponse](t, rec).Recommendations)

	rec = do(t, h, http.MethodGet, "/api/chatbot/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[models.HealthStatus](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.VenuesCount)

	rec = do(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/booking/venues?min_capacity=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	venues := decode[[]models.Venue](t, rec)
	require.Len(t, venues, 1)
	auditorium := venues[0]
	assert.Equal(t, "Main Auditorium", auditorium.Name)

	rec = do(t, h, http.MethodGet, "/api/booking/venues?max_rate=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Hour)
	end := start.Add(2 * time.Hour)
	rec = do(t, h, http.MethodPost, "/api/booking/bookings", models.BookingRequest{VenueID: auditorium.ID, UserID: "user-123", StartTime: start, EndTime: end})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[models.Booking](t, rec)
	assert.Equal(t, 1000.0, booking.TotalCost)

	rec = do(t, h, http.MethodPost, "/api/booking/bookings", models.BookingRequest{VenueID: auditorium.ID, UserID: "user-456", StartTime: start, EndTime: end})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Venue is not available for the selected time slot", decode[models.ErrorResponse](t, rec).Error)

	path := "/api/booking/venues/" + itoa(auditorium.ID) + "/availability?start_time=" + start.Format(time.RFC3339) + "&end_time=" + end.Format(time.RFC3339)
	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	avail := decode[models.Availability](t, rec)
	assert.False(t, avail.IsAvailable)
	assert.Equal(t, 1, avail.Conflicts)

	rec = do(t, h, http.MethodGet, "/api/booking/venues/"+itoa(auditorium.ID)+"/availability?start_time=soon", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/booking/users/user-123/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Booking](t, rec), 1)

	notes := "bring chairs"
	rec = do(t, h, http.MethodPut, "/api/booking/bookings/"+itoa(booking.ID), models.BookingUpdate{Notes: &notes})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Booking](t, rec)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	rec = do(t, h, http.MethodDelete, "/api/booking/bookings/"+itoa(booking.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.BookingCancelled, decode[models.Booking](t, rec).Status)

	rec = do(t, h, http.MethodDelete, "/api/booking/bookings/"+itoa(booking.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Booking is already cancelled", decode[models.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/booking/bookings?status=cancelled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Booking](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/booking/bookings/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVenueCRUDRoutes(t *testing.T) {
	h := newTestRouter(t)

	name, capacity, rate := "Studio", 20, 40.0
	rec := do(t, h, http.MethodPost, "/api/booking/venues/", models.VenueInput{Name: &name, Capacity: &capacity, HourlyRate: &rate})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	venue := decode[models.Venue](t, rec)
	assert.True(t, venue.IsAvailable)

	closed := false
	rec = do(t, h, http.MethodPut, "/api/booking/venues/"+itoa(venue.ID), models.VenueInput{IsAvailable: &closed})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Venue](t, rec).IsAvailable)

	rec = do(t, h, http.MethodGet, "/api/chatbot/venues", nil)
	assert.Len(t, decode[[]models.Venue](t, rec), 3)

	rec = do(t, h, http.MethodDelete, "/api/booking/venues/"+itoa(venue.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/booking/venues/"+itoa(venue.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Venue not found", decode[models.ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/booking/venues", models.VenueInput{Name: &name})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chatbot/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chatbot/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
