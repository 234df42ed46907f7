// Package conversation owns the local view of the active chat: the message
// list, the loading flag, the last error and the session id.
//
// At most one message-list operation is current at a time. SendMessage,
// LoadSession and ClearChat each start a new generation and cancel the previous
// operation's context; a completion whose generation is no longer current
// changes nothing and reports ErrSuperseded.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
)

var (
	// ErrSuperseded is returned by an operation whose result was discarded
	// because a newer operation, or a clear, started while it was in flight.
	ErrSuperseded = errors.New("conversation: operation superseded")
	// ErrSessionNotFound is returned by LoadSession when the id is not among the user's sessions.
	ErrSessionNotFound = errors.New("Session not found")
)

const (
	sendFailedMessage = "Failed to send message"
	loadFailedMessage = "Failed to load session"
)

// ChatAPI is the part of the chatbot client the machine needs.
type ChatAPI interface {
	SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// State is a snapshot of the active conversation. Error is empty when there is none.
type State struct {
	Messages  []models.ChatMessage
	IsLoading bool
	Error     string
	SessionID *int64
	Status    Status
}

func (s State) clone() State {
	out := s
	out.Messages = models.CloneMessages(s.Messages)
	if s.SessionID != nil {
		id := *s.SessionID
		out.SessionID = &id
	}
	return out
}

type Option func(*Machine)

// WithClock sets the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) { m.logger = logging.OrNop(logger) }
}

type Machine struct {
	api    ChatAPI
	userID string
	now    func() time.Time
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	generation  uint64
	cancel      context.CancelFunc
	placeholder int64
	settled     []models.ChatMessage // list before the oldest unsettled send; nil when none
	observers   map[int]func(State)
	nextObsID   int
	seq         uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func New(api ChatAPI, userID string, opts ...Option) *Machine {
	m := &Machine{
		api:       api,
		userID:    userID,
		now:       time.Now,
		logger:    zap.NewNop(),
		state:     State{Messages: []models.ChatMessage{}, Status: StatusIdle},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a deep copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// OnChange registers fn to be called with a snapshot after every mutation.
// Calls are made without the machine's lock held and never go back to an older
// snapshot; fn must not call SendMessage, LoadSession or ClearChat
// synchronously. The returned func unregisters fn.
func (m *Machine) OnChange(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// beginLocked supersedes the in-flight operation and returns the new
// generation with a context that is cancelled when it is superseded in turn.
func (m *Machine) beginLocked(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generation++
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	return m.generation, ctx, cancel
}

// finishLocked clears the cancel func of the current generation.
func (m *Machine) finishLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// commitLocked snapshots the state, releases mu and delivers the snapshot to
// observers. A snapshot older than one already delivered is dropped.
func (m *Machine) commitLocked() {
	m.seq++
	seq := m.seq
	snap := m.state.clone()
	observers := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if seq < m.delivered {
		return
	}
	m.delivered = seq
	for _, fn := range observers {
		fn(snap.clone())
	}
}

// SendMessage appends text as an optimistic user message and sends it. On
// success the message is confirmed and the assistant reply appended; on failure
// the list is restored to what it was before the call and the error recorded.
// If ctx itself is cancelled the list is restored without recording an error.
// A send that supersedes another unsettled send restores to the list from
// before the older one. Whitespace-only text is ignored.
func (m *Machine) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	m.mu.Lock()
	gen, opCtx, cancel := m.beginLocked(ctx)
	defer cancel()

	if m.settled == nil {
		m.settled = models.CloneMessages(m.state.Messages)
	}
	before := models.CloneMessages(m.settled)
	m.placeholder--
	placeholderID := m.placeholder
	m.state.Messages = append(m.state.Messages, models.ChatMessage{
		MessageID:   placeholderID,
		SenderType:  models.SenderUser,
		UserID:      m.userID,
		MessageText: trimmed,
		Timestamp:   m.now(),
		Resolved:    false,
		Pending:     true,
	})
	m.state.IsLoading = true
	m.state.Error = ""
	m.state.Status = StatusSending
	req := models.ChatRequest{Message: trimmed, UserID: m.userID}
	if m.state.SessionID != nil {
		id := *m.state.SessionID
		req.SessionID = &id
	}
	m.commitLocked()

	resp, err := m.api.SendMessage(opCtx, req)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.Debug("discarding superseded send", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	m.finishLocked()
	m.settled = nil
	m.state.IsLoading = false

	if err != nil {
		m.state.Messages = before
		if errors.Is(ctx.Err(), context.Canceled) {
			m.state.Status = StatusIdle
			m.commitLocked()
			return err
		}
		m.state.Error = messageOf(err, sendFailedMessage)
		m.state.Status = StatusError
		m.commitLocked()
		return err
	}

	if m.state.SessionID == nil {
		id := resp.SessionID
		m.state.SessionID = &id
	}
	for i := range m.state.Messages {
		if m.state.Messages[i].MessageID == placeholderID {
			m.state.Messages[i].Pending = false
		}
	}
	m.state.Messages = append(m.state.Messages, models.ChatMessage{
		MessageID:    resp.MessageID,
		SenderType:   models.SenderAdmin,
		UserID:       m.userID,
		ResponseText: models.StringPtr(resp.Response),
		Timestamp:    m.now(),
	})
	m.state.Error = ""
	m.state.Status = StatusIdle
	m.commitLocked()
	return nil
}

// LoadSession replaces the conversation with the stored session id. If the
// user has no such session, or the lookup fails, only the error is set; a send
// it superseded is rolled back as if it had failed.
func (m *Machine) LoadSession(ctx context.Context, sessionID int64) error {
	m.mu.Lock()
	gen, opCtx, cancel := m.beginLocked(ctx)
	defer cancel()
	m.state.IsLoading = true
	m.state.Error = ""
	m.state.Status = StatusLoading
	m.commitLocked()

	sessions, err := m.api.ListSessions(opCtx, m.userID)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.finishLocked()
	m.state.IsLoading = false
	m.state.Status = StatusIdle
	if m.settled != nil {
		m.state.Messages = m.settled
		m.settled = nil
	}

	if err != nil {
		if !errors.Is(ctx.Err(), context.Canceled) {
			m.state.Error = messageOf(err, loadFailedMessage)
			m.state.Status = StatusError
		}
		m.commitLocked()
		return err
	}

	for _, session := range sessions {
		if session.ID != sessionID {
			continue
		}
		id := session.ID
		m.state.Messages = models.CloneMessages(session.Messages)
		m.state.SessionID = &id
		m.commitLocked()
		return nil
	}

	m.state.Error = ErrSessionNotFound.Error()
	m.state.Status = StatusError
	m.commitLocked()
	return ErrSessionNotFound
}

// ClearChat cancels any in-flight operation and starts an empty conversation.
func (m *Machine) ClearChat() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generation++
	m.settled = nil
	m.state = State{Messages: []models.ChatMessage{}, Status: StatusIdle}
	m.commitLocked()
}

func messageOf(err error, fallback string) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
