package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/models"
)

// BookingClient calls the booking API rooted at baseURL (for example
// http://localhost:8000/api/booking).
type BookingClient struct {
	t transport
}

func NewBookingClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BookingClient {
	return &BookingClient{t: newTransport(baseURL, timeout, logger)}
}

func (c *BookingClient) ListVenues(ctx context.Context, filter models.VenueFilter) ([]models.Venue, error) {
	query := url.Values{}
	if filter.MinCapacity > 0 {
		query.Set("min_capacity", strconv.Itoa(filter.MinCapacity))
	}
	if filter.MaxRate > 0 {
		query.Set("max_rate", strconv.FormatFloat(filter.MaxRate, 'f', -1, 64))
	}
	var venues []models.Venue
	if err := c.t.do(ctx, http.MethodGet, "/venues/", query, nil, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

func (c *BookingClient) GetVenue(ctx context.Context, venueID int64) (*models.Venue, error) {
	var venue models.Venue
	if err := c.t.do(ctx, http.MethodGet, venuePath(venueID), nil, nil, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *BookingClient) CreateVenue(ctx context.Context, in models.VenueInput) (*models.Venue, error) {
	var venue models.Venue
	if err := c.t.do(ctx, http.MethodPost, "/venues/", nil, in, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *BookingClient) UpdateVenue(ctx context.Context, venueID int64, in models.VenueInput) (*models.Venue, error) {
	var venue models.Venue
	if err := c.t.do(ctx, http.MethodPut, venuePath(venueID), nil, in, &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (c *BookingClient) DeleteVenue(ctx context.Context, venueID int64) error {
	return c.t.do(ctx, http.MethodDelete, venuePath(venueID), nil, nil, nil)
}

func (c *BookingClient) CheckAvailability(ctx context.Context, venueID int64, start, end time.Time) (*models.Availability, error) {
	query := url.Values{}
	query.Set("start_time", start.Format(time.RFC3339))
	query.Set("end_time", end.Format(time.RFC3339))
	var avail models.Availability
	if err := c.t.do(ctx, http.MethodGet, venuePath(venueID)+"availability/", query, nil, &avail); err != nil {
		return nil, err
	}
	return &avail, nil
}

func (c *BookingClient) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := url.Values{}
	if filter.UserID != "" {
		query.Set("user_id", filter.UserID)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	var bookings []models.Booking
	if err := c.t.do(ctx, http.MethodGet, "/bookings/", query, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *BookingClient) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	var booking models.Booking
	if err := c.t.do(ctx, http.MethodGet, bookingPath(bookingID), nil, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := c.t.do(ctx, http.MethodPost, "/bookings/", nil, req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) UpdateBooking(ctx context.Context, bookingID int64, upd models.BookingUpdate) (*models.Booking, error) {
	var booking models.Booking
	if err := c.t.do(ctx, http.MethodPut, bookingPath(bookingID), nil, upd, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking deletes the booking server-side, which marks it cancelled.
func (c *BookingClient) CancelBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	var booking models.Booking
	if err := c.t.do(ctx, http.MethodDelete, bookingPath(bookingID), nil, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.t.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/bookings/", nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func venuePath(id int64) string   { return fmt.Sprintf("/venues/%d/", id) }
func bookingPath(id int64) string { return fmt.Sprintf("/bookings/%d/", id) }
