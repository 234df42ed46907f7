package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/store"
)

// BookingService manages venues and their bookings.
type BookingService struct {
	dbStore *store.SQLiteStore
	rag     *RAGService // optional; its venue cache is dropped on venue writes
	logger  *zap.Logger
	now     func() time.Time
}

func NewBookingService(db *store.SQLiteStore, rag *RAGService, logger *zap.Logger) *BookingService {
	return &BookingService{dbStore: db, rag: rag, logger: logging.OrNop(logger), now: time.Now}
}

func (s *BookingService) invalidate() {
	if s.rag != nil {
		s.rag.Invalidate()
	}
}

func (s *BookingService) ListVenues(ctx context.Context, filter models.VenueFilter) ([]models.Venue, error) {
	return s.dbStore.ListVenues(ctx, filter, false)
}

// AvailableVenues lists the venues open for booking, as the chatbot shows them.
func (s *BookingService) AvailableVenues(ctx context.Context) ([]models.Venue, error) {
	return s.dbStore.ListVenues(ctx, models.VenueFilter{}, true)
}

func (s *BookingService) GetVenue(ctx context.Context, venueID int64) (*models.Venue, error) {
	venue, err := s.dbStore.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}

func (s *BookingService) CreateVenue(ctx context.Context, in models.VenueInput) (*models.Venue, error) {
	venue := &models.Venue{IsAvailable: true}
	applyVenueInput(venue, in)
	if err := validateVenue(venue); err != nil {
		return nil, err
	}
	if err := s.dbStore.CreateVenue(ctx, venue); err != nil {
		return nil, err
	}
	s.invalidate()
	s.logger.Info("venue created", zap.Int64("venue_id", venue.ID), zap.String("name", venue.Name))
	return venue, nil
}

// UpdateVenue applies the non-nil fields of in.
func (s *BookingService) UpdateVenue(ctx context.Context, venueID int64, in models.VenueInput) (*models.Venue, error) {
	venue, err := s.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	applyVenueInput(venue, in)
	if err := validateVenue(venue); err != nil {
		return nil, err
	}
	if err := s.dbStore.UpdateVenue(ctx, venue); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	s.invalidate()
	return venue, nil
}

func (s *BookingService) DeleteVenue(ctx context.Context, venueID int64) error {
	deleted, err := s.dbStore.DeleteVenue(ctx, venueID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrVenueNotFound
	}
	s.invalidate()
	s.logger.Info("venue deleted", zap.Int64("venue_id", venueID))
	return nil
}

func applyVenueInput(v *models.Venue, in models.VenueInput) {
	if in.Name != nil {
		v.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		v.Description = *in.Description
	}
	if in.Capacity != nil {
		v.Capacity = *in.Capacity
	}
	if in.HourlyRate != nil {
		v.HourlyRate = *in.HourlyRate
	}
	if in.IsAvailable != nil {
		v.IsAvailable = *in.IsAvailable
	}
}

func validateVenue(v *models.Venue) error {
	if v.Name == "" || v.Capacity <= 0 || v.HourlyRate < 0 {
		return ErrInvalidVenue
	}
	return nil
}

// CheckAvailability reports whether the venue is free over [start, end).
func (s *BookingService) CheckAvailability(ctx context.Context, venueID int64, start, end time.Time) (*models.Availability, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	venue, err := s.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.dbStore.CountConflicts(ctx, venueID, start, end, 0)
	if err != nil {
		return nil, err
	}
	return &models.Availability{
		VenueID:     venue.ID,
		VenueName:   venue.Name,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: venue.IsAvailable && conflicts == 0,
		Conflicts:   conflicts,
	}, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.StartTime.Before(s.now()) {
		return nil, ErrStartInPast
	}
	venue, err := s.GetVenue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsAvailable {
		return nil, ErrVenueUnavailable
	}

	booking := &models.Booking{
		BookingReference: newBookingReference(),
		Venue:            *venue,
		UserID:           req.UserID,
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		TotalCost:        bookingCost(req.StartTime, req.EndTime, venue.HourlyRate),
		Status:           models.BookingPending,
		Notes:            req.Notes,
	}
	if err := s.dbStore.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrVenueUnavailable
		}
		return nil, err
	}
	s.logger.Info("booking created",
		zap.String("reference", booking.BookingReference),
		zap.Int64("venue_id", venue.ID),
		zap.String("user_id", booking.UserID))
	return booking, nil
}

// UpdateBooking applies a partial update. Cost is recomputed and the slot is
// rechecked when the times change.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID int64, upd models.BookingUpdate) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if upd.StartTime != nil {
		booking.StartTime = upd.StartTime.UTC()
	}
	if upd.EndTime != nil {
		booking.EndTime = upd.EndTime.UTC()
	}
	if upd.StartTime != nil || upd.EndTime != nil {
		if !booking.EndTime.After(booking.StartTime) {
			return nil, ErrInvalidTimeRange
		}
		booking.TotalCost = bookingCost(booking.StartTime, booking.EndTime, booking.Venue.HourlyRate)
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		booking.Status = *upd.Status
	}
	if upd.Notes != nil {
		booking.Notes = upd.Notes
	}

	if err := s.dbStore.UpdateBooking(ctx, booking); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, ErrVenueUnavailable
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch booking.Status {
	case models.BookingCancelled:
		return nil, ErrAlreadyCancelled
	case models.BookingCompleted:
		return nil, ErrCannotCancel
	}
	booking.Status = models.BookingCancelled
	if err := s.dbStore.UpdateBooking(ctx, booking); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	s.logger.Info("booking cancelled", zap.String("reference", booking.BookingReference))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.dbStore.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.dbStore.ListBookings(ctx, filter)
}

func (s *BookingService) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	return s.dbStore.ListBookings(ctx, models.BookingFilter{UserID: userID})
}

var sampleVenues = []models.Venue{
	{
		Name:        "Main Auditorium",
		Description: "Large auditorium suitable for conferences, performances, and large events",
		Capacity:    600,
		HourlyRate:  500,
	},
	{
		Name:        "Conference Hall",
		Description: "Medium-sized hall perfect for meetings, workshops, and seminars",
		Capacity:    100,
		HourlyRate:  150,
	},
	{
		Name:        "Pond Amphitheatre",
		Description: "Outdoor amphitheatre by the pond, ideal for concerts and cultural events",
		Capacity:    300,
		HourlyRate:  300,
	},
}

// EnsureSampleVenues seeds the sample venues into an empty venue table. It
// reports how many venues were created.
func (s *BookingService) EnsureSampleVenues(ctx context.Context) (int, error) {
	existing, err := s.dbStore.ListVenues(ctx, models.VenueFilter{}, false)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, sample := range sampleVenues {
		v := sample
		v.IsAvailable = true
		if err := s.dbStore.CreateVenue(ctx, &v); err != nil {
			return 0, fmt.Errorf("failed to seed venue %q: %w", v.Name, err)
		}
	}
	s.invalidate()
	return len(sampleVenues), nil
}

func newBookingReference() string {
	return "BK-" + strings.ToUpper(uuid.NewString()[:8])
}

func bookingCost(start, end time.Time, hourlyRate float64) float64 {
	return math.Round(end.Sub(start).Hours()*hourlyRate*100) / 100
}
