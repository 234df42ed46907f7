package core

import "errors"

var (
	ErrEmptyMessage     = errors.New("Message is required")
	ErrMissingUser      = errors.New("user_id is required")
	ErrSessionNotFound  = errors.New("Session not found")
	ErrVenueNotFound    = errors.New("Venue not found")
	ErrBookingNotFound  = errors.New("Booking not found")
	ErrInvalidVenue     = errors.New("Venue name and a positive capacity are required")
	ErrInvalidTimeRange = errors.New("End time must be after start time")
	ErrStartInPast      = errors.New("Start time cannot be in the past")
	ErrVenueUnavailable = errors.New("Venue is not available for the selected time slot")
	ErrInvalidStatus    = errors.New("Invalid booking status")
	ErrAlreadyCancelled = errors.New("Booking is already cancelled")
	ErrCannotCancel     = errors.New("Cannot cancel this booking")
)
