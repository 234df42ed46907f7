package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gwi.com/venue-assistant/internal/models"
)

const messageColumns = "message_id, session_id, sender_type, user_id, message_text, response_text, timestamp, booking_reference, resolved"

// AppendExchange persists one user turn and the assistant reply. With a nil
// sessionID a new session owned by userID is created first; otherwise the
// session must exist and belong to userID, or ErrNotFound is returned. The whole
// exchange is one transaction so a persisted session is never empty.
func (s *SQLiteStore) AppendExchange(ctx context.Context, sessionID *int64, userID string, userMsg, botMsg *models.ChatMessage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin exchange transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var id int64
	if sessionID == nil {
		res, err := tx.ExecContext(ctx, "INSERT INTO chat_sessions (user_id, created_at, updated_at) VALUES (?, ?, ?)", userID, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert session: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read session id: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, "UPDATE chat_sessions SET updated_at = ? WHERE id = ? AND user_id = ?", now, *sessionID, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to touch session: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return 0, ErrNotFound
		}
		id = *sessionID
	}

	for _, msg := range []*models.ChatMessage{userMsg, botMsg} {
		msg.UserID = userID
		if msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO chat_messages (session_id, sender_type, user_id, message_text, response_text, timestamp, booking_reference, resolved) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, string(msg.SenderType), msg.UserID, msg.MessageText, nullString(msg.ResponseText), msg.Timestamp, nullString(msg.BookingReference), msg.Resolved)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s message: %w", msg.SenderType, err)
		}
		if msg.MessageID, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read message id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit exchange: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.QueryRowContext(ctx, "SELECT id, user_id, created_at, updated_at FROM chat_sessions WHERE id = ?", sessionID).
		Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+messageColumns+" FROM chat_messages WHERE session_id = ? ORDER BY message_id ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg, _, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session messages: %w", err)
	}
	return &session, nil
}

// ListSessionsByUser returns the user's sessions, most recently updated first,
// each with its full message history in chronological order.
func (s *SQLiteStore) ListSessionsByUser(ctx context.Context, userID string) ([]models.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, user_id, created_at, updated_at FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	sessions := []models.ChatSession{}
	index := make(map[int64]int)
	for rows.Next() {
		var session models.ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session.Messages = []models.ChatMessage{}
		index[session.ID] = len(sessions)
		sessions = append(sessions, session)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	msgRows, err := s.db.QueryContext(ctx,
		"SELECT m."+messageColumnsWithAlias+" FROM chat_messages m JOIN chat_sessions cs ON cs.id = m.session_id WHERE cs.user_id = ? ORDER BY m.message_id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		msg, sessionID, err := scanMessage(msgRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[sessionID]; ok {
			sessions[i].Messages = append(sessions[i].Messages, msg)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return sessions, nil
}

// GetLastNMessages returns up to n of the newest messages of a session, oldest first.
func (s *SQLiteStore) GetLastNMessages(ctx context.Context, sessionID int64, n int) ([]models.ChatMessage, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM chat_messages
        WHERE session_id = ?
        ORDER BY message_id DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, query, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		msg, _, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// DeleteSession removes a session and its messages. It reports false when no
// such session existed.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", sessionID); err != nil {
		return false, fmt.Errorf("failed to delete session messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit session delete: %w", err)
	}
	return true, nil
}

const messageColumnsWithAlias = "message_id, m.session_id, m.sender_type, m.user_id, m.message_text, m.response_text, m.timestamp, m.booking_reference, m.resolved"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (models.ChatMessage, int64, error) {
	var (
		msg       models.ChatMessage
		sessionID int64
		sender    string
		response  sql.NullString
		reference sql.NullString
	)
	if err := row.Scan(&msg.MessageID, &sessionID, &sender, &msg.UserID, &msg.MessageText, &response, &msg.Timestamp, &reference, &msg.Resolved); err != nil {
		return models.ChatMessage{}, 0, fmt.Errorf("failed to scan message row: %w", err)
	}
	msg.SenderType = models.SenderType(sender)
	msg.ResponseText = stringPtr(response)
	msg.BookingReference = stringPtr(reference)
	return msg, sessionID, nil
}
