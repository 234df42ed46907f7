package models

import "time"

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAdmin  SenderType = "admin" // the assistant
	SenderSystem SenderType = "system"
)

// Valid reports whether s is one of the known sender types.
func (s SenderType) Valid() bool {
	switch s {
	case SenderUser, SenderAdmin, SenderSystem:
		return true
	}
	return false
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	MessageID        int64      `json:"message_id"`
	SenderType       SenderType `json:"sender_type"`
	UserID           string     `json:"user_id"`
	MessageText      string     `json:"message_text"`
	ResponseText     *string    `json:"response_text,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
	BookingReference *string    `json:"booking_reference,omitempty"`
	Resolved         bool       `json:"resolved"`

	// Pending marks a local optimistic message the server has not confirmed yet.
	Pending bool `json:"-"`
}

// DisplayText picks the text to show for the message. The sender type is the
// only discriminator: assistant turns show the response text, everything else
// shows the message text.
func (m ChatMessage) DisplayText() string {
	if m.SenderType == SenderAdmin {
		if m.ResponseText == nil {
			return ""
		}
		return *m.ResponseText
	}
	return m.MessageText
}

// ChatSession is a persisted conversation. Messages are in chronological order.
type ChatSession struct {
	ID        int64         `json:"id"`
	UserID    string        `json:"user_id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with s.
func (s ChatSession) Clone() ChatSession {
	out := s
	out.Messages = CloneMessages(s.Messages)
	return out
}

// CloneMessages deep-copies a message slice.
func CloneMessages(msgs []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		if m.ResponseText != nil {
			v := *m.ResponseText
			m.ResponseText = &v
		}
		if m.BookingReference != nil {
			v := *m.BookingReference
			m.BookingReference = &v
		}
		out[i] = m
	}
	return out
}

type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID *int64 `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID int64  `json:"session_id"`
	MessageID int64  `json:"message_id"`
}

type RecommendationRequest struct {
	Message string `json:"message"`
}

type RecommendationResponse struct {
	Recommendations string `json:"recommendations"`
}

type HealthStatus struct {
	Status        string `json:"status"`
	Database      string `json:"database,omitempty"`
	VenuesCount   int    `json:"venues_count"`
	MessagesCount int    `json:"messages_count"`
	Error         string `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StringPtr is a small helper for optional text fields.
func StringPtr(s string) *string {
	return &s
}
