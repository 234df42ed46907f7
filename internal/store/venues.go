package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gwi.com/venue-assistant/internal/models"
)

const venueColumns = "id, name, description, capacity, hourly_rate, is_available, created_at, updated_at"

func (s *SQLiteStore) CreateVenue(ctx context.Context, venue *models.Venue) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO venues (name, description, capacity, hourly_rate, is_available, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		venue.Name, venue.Description, venue.Capacity, venue.HourlyRate, venue.IsAvailable, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}
	if venue.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read venue id: %w", err)
	}
	venue.CreatedAt, venue.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStore) GetVenue(ctx context.Context, venueID int64) (*models.Venue, error) {
	venue, err := scanVenue(s.db.QueryRowContext(ctx, "SELECT "+venueColumns+" FROM venues WHERE id = ?", venueID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return &venue, nil
}

// ListVenues returns venues ordered by capacity. onlyAvailable hides venues
// that are switched off for booking.
func (s *SQLiteStore) ListVenues(ctx context.Context, filter models.VenueFilter, onlyAvailable bool) ([]models.Venue, error) {
	var (
		where []string
		args  []any
	)
	if onlyAvailable {
		where = append(where, "is_available = TRUE")
	}
	if filter.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, filter.MinCapacity)
	}
	if filter.MaxRate > 0 {
		where = append(where, "hourly_rate <= ?")
		args = append(args, filter.MaxRate)
	}

	query := "SELECT " + venueColumns + " FROM venues"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY capacity ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	venues := []models.Venue{}
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue row: %w", err)
		}
		venues = append(venues, venue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}
	return venues, nil
}

// UpdateVenue writes every field of venue and refreshes UpdatedAt.
func (s *SQLiteStore) UpdateVenue(ctx context.Context, venue *models.Venue) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE venues SET name = ?, description = ?, capacity = ?, hourly_rate = ?, is_available = ?, updated_at = ? WHERE id = ?",
		venue.Name, venue.Description, venue.Capacity, venue.HourlyRate, venue.IsAvailable, now, venue.ID)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	venue.UpdatedAt = now
	return nil
}

// DeleteVenue removes a venue together with its bookings.
func (s *SQLiteStore) DeleteVenue(ctx context.Context, venueID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin venue delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE venue_id = ?", venueID); err != nil {
		return false, fmt.Errorf("failed to delete venue bookings: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM venues WHERE id = ?", venueID)
	if err != nil {
		return false, fmt.Errorf("failed to delete venue: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit venue delete: %w", err)
	}
	return true, nil
}

func scanVenue(row rowScanner) (models.Venue, error) {
	var v models.Venue
	err := row.Scan(&v.ID, &v.Name, &v.Description, &v.Capacity, &v.HourlyRate, &v.IsAvailable, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}
