package models

import "time"

type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	HourlyRate  float64   `json:"hourly_rate"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VenueInput carries the writable venue fields. Nil fields are left untouched on update.
type VenueInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Capacity    *int     `json:"capacity,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty"`
	IsAvailable *bool    `json:"is_available,omitempty"`
}

// VenueFilter narrows venue listings. Zero values mean no filter.
type VenueFilter struct {
	MinCapacity int
	MaxRate     float64
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Blocking reports whether a booking in this status occupies its slot.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID               int64         `json:"id"`
	BookingReference string        `json:"booking_reference"`
	Venue            Venue         `json:"venue"`
	UserID           string        `json:"user_id"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	TotalCost        float64       `json:"total_cost"`
	Status           BookingStatus `json:"status"`
	Notes            *string       `json:"notes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type BookingRequest struct {
	VenueID   int64     `json:"venue_id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
}

type BookingUpdate struct {
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Status    *BookingStatus `json:"status,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

type BookingFilter struct {
	UserID string
	Status BookingStatus
}

type Availability struct {
	VenueID     int64     `json:"venue_id"`
	VenueName   string    `json:"venue_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	Conflicts   int       `json:"conflicts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
