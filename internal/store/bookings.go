package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gwi.com/venue-assistant/internal/models"
)

const bookingSelect = `
    SELECT b.id, b.booking_reference, b.user_id, b.start_at, b.end_at, b.total_cost, b.status, b.notes, b.created_at, b.updated_at,
           v.id, v.name, v.description, v.capacity, v.hourly_rate, v.is_available, v.created_at, v.updated_at
    FROM bookings b
    JOIN venues v ON v.id = b.venue_id
`

const conflictQuery = `
    SELECT COUNT(*) FROM bookings
    WHERE venue_id = ? AND status IN ('pending', 'confirmed') AND start_at < ? AND end_at > ? AND id != ?
`

// CountConflicts counts active bookings of the venue overlapping [start, end),
// ignoring the booking with excludeID.
func (s *SQLiteStore) CountConflicts(ctx context.Context, venueID int64, start, end time.Time, excludeID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, conflictQuery, venueID, end.Unix(), start.Unix(), excludeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count booking conflicts: %w", err)
	}
	return n, nil
}

// CreateBooking inserts the booking unless it overlaps an active booking of the
// same venue, in which case ErrConflict is returned. Check and insert share one
// transaction.
func (s *SQLiteStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	var conflicts int
	if err := tx.QueryRowContext(ctx, conflictQuery, b.Venue.ID, b.EndTime.Unix(), b.StartTime.Unix(), 0).Scan(&conflicts); err != nil {
		return fmt.Errorf("failed to count booking conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrConflict
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO bookings (booking_reference, venue_id, user_id, start_at, end_at, total_cost, status, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		b.BookingReference, b.Venue.ID, b.UserID, b.StartTime.Unix(), b.EndTime.Unix(), b.TotalCost, string(b.Status), nullString(b.Notes), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateBooking rewrites the mutable booking fields. When the booking stays
// active, the new slot is checked for overlaps in the same transaction.
func (s *SQLiteStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking update: %w", err)
	}
	defer tx.Rollback()

	if b.Status.Blocking() {
		var conflicts int
		if err := tx.QueryRowContext(ctx, conflictQuery, b.Venue.ID, b.EndTime.Unix(), b.StartTime.Unix(), b.ID).Scan(&conflicts); err != nil {
			return fmt.Errorf("failed to count booking conflicts: %w", err)
		}
		if conflicts > 0 {
			return ErrConflict
		}
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET start_at = ?, end_at = ?, total_cost = ?, status = ?, notes = ?, updated_at = ? WHERE id = ?",
		b.StartTime.Unix(), b.EndTime.Unix(), b.TotalCost, string(b.Status), nullString(b.Notes), now, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking update: %w", err)
	}
	b.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, bookingSelect+" WHERE b.id = ?", bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// ListBookings returns bookings newest first, optionally narrowed by user and status.
func (s *SQLiteStore) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "b.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(filter.Status))
	}
	query := bookingSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.created_at DESC, b.id DESC"

	return s.queryBookings(ctx, query, args...)
}

// RecentBookings returns up to limit bookings created since the given time.
func (s *SQLiteStore) RecentBookings(ctx context.Context, since time.Time, limit int) ([]models.Booking, error) {
	return s.queryBookings(ctx, bookingSelect+" WHERE b.created_at >= ? ORDER BY b.created_at DESC, b.id DESC LIMIT ?", since.UTC(), limit)
}

func (s *SQLiteStore) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b              models.Booking
		status         string
		notes          sql.NullString
		startAt, endAt int64
	)
	err := row.Scan(&b.ID, &b.BookingReference, &b.UserID, &startAt, &endAt, &b.TotalCost, &status, &notes, &b.CreatedAt, &b.UpdatedAt,
		&b.Venue.ID, &b.Venue.Name, &b.Venue.Description, &b.Venue.Capacity, &b.Venue.HourlyRate, &b.Venue.IsAvailable, &b.Venue.CreatedAt, &b.Venue.UpdatedAt)
	if err != nil {
		return models.Booking{}, err
	}
	b.StartTime = time.Unix(startAt, 0).UTC()
	b.EndTime = time.Unix(endAt, 0).UTC()
	b.Status = models.BookingStatus(status)
	b.Notes = stringPtr(notes)
	return b, nil
}
