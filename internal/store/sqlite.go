package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	// ErrNotFound is returned by writes that target a row that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a booking overlaps an active booking of the same venue.
	ErrConflict = errors.New("time slot conflicts with an existing booking")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers; sqlite would otherwise report SQLITE_BUSY
	// for concurrent transactions.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS chat_sessions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_chat_sessions_user ON chat_sessions (user_id);

    CREATE TABLE IF NOT EXISTS chat_messages (
        message_id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id INTEGER NOT NULL,
        sender_type TEXT NOT NULL CHECK (sender_type IN ('user', 'admin', 'system')),
        user_id TEXT NOT NULL,
        message_text TEXT NOT NULL DEFAULT '',
        response_text TEXT,
        timestamp DATETIME NOT NULL,
        booking_reference TEXT,
        resolved BOOLEAN NOT NULL DEFAULT FALSE,
        FOREIGN KEY (session_id) REFERENCES chat_sessions (id)
    );
    CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id);

    CREATE TABLE IF NOT EXISTS venues (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        capacity INTEGER NOT NULL,
        hourly_rate REAL NOT NULL DEFAULT 0,
        is_available BOOLEAN NOT NULL DEFAULT TRUE,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS bookings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        booking_reference TEXT UNIQUE NOT NULL,
        venue_id INTEGER NOT NULL,
        user_id TEXT NOT NULL,
        start_at INTEGER NOT NULL, -- unix seconds, compared numerically for overlaps
        end_at INTEGER NOT NULL,
        total_cost REAL NOT NULL,
        status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
        notes TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        FOREIGN KEY (venue_id) REFERENCES venues (id)
    );
    CREATE INDEX IF NOT EXISTS idx_bookings_venue ON bookings (venue_id, start_at, end_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Counts backs the health endpoint.
func (s *SQLiteStore) Counts(ctx context.Context) (venues int, messages int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM venues").Scan(&venues); err != nil {
		return 0, 0, fmt.Errorf("failed to count venues: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_messages").Scan(&messages); err != nil {
		return 0, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return venues, messages, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
