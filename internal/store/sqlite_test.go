package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func exchange(text, reply string) (*models.ChatMessage, *models.ChatMessage) {
	return &models.ChatMessage{SenderType: models.SenderUser, MessageText: text},
		&models.ChatMessage{SenderType: models.SenderAdmin, ResponseText: models.StringPtr(reply)}
}

func TestAppendExchangeCreatesAndExtendsSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1, b1 := exchange("Do you have a venue for 50 people?", "Yes, Venue A fits.")
	sessionID, err := s.AppendExchange(ctx, nil, "user-123", u1, b1)
	require.NoError(t, err)
	assert.NotZero(t, sessionID)
	assert.Greater(t, b1.MessageID, u1.MessageID)

	u2, b2 := exchange("How much is it?", "100 per hour.")
	again, err := s.AppendExchange(ctx, &sessionID, "user-123", u2, b2)
	require.NoError(t, err)
	assert.Equal(t, sessionID, again)

	session, err := s.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Len(t, session.Messages, 4)
	assert.Equal(t, "Do you have a venue for 50 people?", session.Messages[0].MessageText)
	assert.Equal(t, models.SenderAdmin, session.Messages[1].SenderType)
	assert.Equal(t, "Yes, Venue A fits.", session.Messages[1].DisplayText())
	assert.Equal(t, "100 per hour.", session.Messages[3].DisplayText())
}

func TestAppendExchangeRejectsForeignSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, b := exchange("hi", "hello")
	sessionID, err := s.AppendExchange(ctx, nil, "alice", u, b)
	require.NoError(t, err)

	u, b = exchange("hijack", "no")
	_, err = s.AppendExchange(ctx, &sessionID, "mallory", u, b)
	require.ErrorIs(t, err, store.ErrNotFound)

	missing := int64(999)
	_, err = s.AppendExchange(ctx, &missing, "alice", u, b)
	require.ErrorIs(t, err, store.ErrNotFound)

	session, err := s.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 2)
}

func TestListSessionsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, b := exchange("first", "r1")
	first, err := s.AppendExchange(ctx, nil, "user-123", u, b)
	require.NoError(t, err)
	u, b = exchange("second", "r2")
	second, err := s.AppendExchange(ctx, nil, "user-123", u, b)
	require.NoError(t, err)
	u, b = exchange("other", "r3")
	_, err = s.AppendExchange(ctx, nil, "someone-else", u, b)
	require.NoError(t, err)

	sessions, err := s.ListSessionsByUser(ctx, "user-123")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
	for _, session := range sessions {
		assert.Len(t, session.Messages, 2)
	}

	empty, err := s.ListSessionsByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetLastNMessagesIsChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, b := exchange("one", "two")
	id, err := s.AppendExchange(ctx, nil, "u", u, b)
	require.NoError(t, err)
	u, b = exchange("three", "four")
	_, err = s.AppendExchange(ctx, &id, "u", u, b)
	require.NoError(t, err)

	last, err := s.GetLastNMessages(ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, last, 3)
	assert.Equal(t, "two", last[0].DisplayText())
	assert.Equal(t, "three", last[1].DisplayText())
	assert.Equal(t, "four", last[2].DisplayText())
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, b := exchange("bye", "ok")
	id, err := s.AppendExchange(ctx, nil, "u", u, b)
	require.NoError(t, err)

	deleted, err := s.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	session, err := s.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, session)

	deleted, err = s.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, messages, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, messages)
}

func TestVenueCRUDAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hall := &models.Venue{Name: "Conference Hall", Capacity: 100, HourlyRate: 50, IsAvailable: true}
	auditorium := &models.Venue{Name: "Main Auditorium", Capacity: 600, HourlyRate: 200, IsAvailable: true}
	closed := &models.Venue{Name: "Old Annex", Capacity: 40, HourlyRate: 10, IsAvailable: false}
	for _, v := range []*models.Venue{hall, auditorium, closed} {
		require.NoError(t, s.CreateVenue(ctx, v))
	}

	all, err := s.ListVenues(ctx, models.VenueFilter{}, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	available, err := s.ListVenues(ctx, models.VenueFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	big, err := s.ListVenues(ctx, models.VenueFilter{MinCapacity: 200}, false)
	require.NoError(t, err)
	require.Len(t, big, 1)
	assert.Equal(t, "Main Auditorium", big[0].Name)

	cheap, err := s.ListVenues(ctx, models.VenueFilter{MaxRate: 60}, true)
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "Conference Hall", cheap[0].Name)

	hall.Capacity = 120
	require.NoError(t, s.UpdateVenue(ctx, hall))
	got, err := s.GetVenue(ctx, hall.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.Capacity)

	deleted, err := s.DeleteVenue(ctx, closed.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	got, err = s.GetVenue(ctx, closed.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.ErrorIs(t, s.UpdateVenue(ctx, closed), store.ErrNotFound)
}

func TestBookingConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	venue := &models.Venue{Name: "Pond Amphitheatre", Capacity: 300, HourlyRate: 80, IsAvailable: true}
	require.NoError(t, s.CreateVenue(ctx, venue))

	start := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	first := &models.Booking{
		BookingReference: "BK-00000001",
		Venue:            *venue,
		UserID:           "user-123",
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		TotalCost:        160,
		Status:           models.BookingPending,
	}
	require.NoError(t, s.CreateBooking(ctx, first))

	overlapping := *first
	overlapping.BookingReference = "BK-00000002"
	overlapping.StartTime = start.Add(time.Hour)
	overlapping.EndTime = start.Add(3 * time.Hour)
	require.ErrorIs(t, s.CreateBooking(ctx, &overlapping), store.ErrConflict)

	adjacent := overlapping
	adjacent.StartTime = start.Add(2 * time.Hour)
	require.NoError(t, s.CreateBooking(ctx, &adjacent))

	n, err := s.CountConflicts(ctx, venue.ID, start, start.Add(4*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first.Status = models.BookingCancelled
	require.NoError(t, s.UpdateBooking(ctx, first))
	n, err = s.CountConflicts(ctx, venue.ID, start, start.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.GetBooking(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.BookingCancelled, got.Status)
	assert.Equal(t, "Pond Amphitheatre", got.Venue.Name)
	assert.True(t, got.StartTime.Equal(start))

	mine, err := s.ListBookings(ctx, models.BookingFilter{UserID: "user-123", Status: models.BookingPending})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "BK-00000002", mine[0].BookingReference)
}
