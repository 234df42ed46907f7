// Package widget binds the conversation machine and the session store into the
// props and intents a chat surface renders and raises.
package widget

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/conversation"
	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/sessions"
)

// API is what the controller needs from the chatbot service. *client.ChatClient satisfies it.
type API interface {
	conversation.ChatAPI
	sessions.API
}

// ChatProps is what the chat window renders.
type ChatProps struct {
	Messages  []models.ChatMessage
	IsLoading bool
	Error     string
}

// SidebarProps is what the session sidebar renders.
type SidebarProps struct {
	Sessions         []models.ChatSession
	CurrentSessionID *int64
	Loading          bool
	Error            string
}

type Controller struct {
	machine *conversation.Machine
	store   *sessions.Store
	logger  *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	changes     chan *int64
	unsubscribe func()
	wg          sync.WaitGroup

	mu     sync.Mutex
	closed bool
	seen   bool
	last   *int64
}

// New starts a controller for userID. The session list is loaded in the
// background right away and again whenever the conversation drops its session.
func New(api API, userID string, logger *zap.Logger, opts ...conversation.Option) *Controller {
	logger = logging.OrNop(logger)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		machine: conversation.New(api, userID, append([]conversation.Option{conversation.WithLogger(logger)}, opts...)...),
		store:   sessions.New(api, userID, logger),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan *int64, 16),
	}

	c.wg.Add(1)
	go c.forward()

	c.unsubscribe = c.machine.OnChange(c.observe)
	c.observe(c.machine.State())
	return c
}

// observe queues the session id whenever it differs from the last one queued.
func (c *Controller) observe(st conversation.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.seen && sameID(c.last, st.SessionID)) {
		return
	}
	c.seen = true
	c.last = st.SessionID
	c.changes <- st.SessionID
}

// forward hands session id transitions to the store in order.
func (c *Controller) forward() {
	defer c.wg.Done()
	for id := range c.changes {
		reloaded, err := c.store.ActiveSessionChanged(c.ctx, id)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("session list refresh failed", zap.Error(err))
			continue
		}
		if reloaded {
			c.logger.Debug("session list refreshed")
		}
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (c *Controller) Chat() ChatProps {
	st := c.machine.State()
	return ChatProps{Messages: st.Messages, IsLoading: st.IsLoading, Error: st.Error}
}

func (c *Controller) Sidebar() SidebarProps {
	snap := c.store.Snapshot()
	return SidebarProps{
		Sessions:         snap.Sessions,
		CurrentSessionID: c.machine.State().SessionID,
		Loading:          snap.Loading,
		Error:            snap.Error,
	}
}

// SendMessage sends text in the active conversation. See conversation.Machine.SendMessage.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	return c.machine.SendMessage(ctx, text)
}

// NewChat abandons the active conversation and starts an empty one.
func (c *Controller) NewChat() {
	c.machine.ClearChat()
}

func (c *Controller) ClearChat() {
	c.machine.ClearChat()
}

// SelectSession replaces the active conversation with a stored session.
func (c *Controller) SelectSession(ctx context.Context, sessionID int64) error {
	return c.machine.LoadSession(ctx, sessionID)
}

// DeleteSession deletes a stored session. Deleting the active session starts a
// new chat. When the server refuses, the list is reloaded to resync and the
// sidebar keeps showing the refusal.
func (c *Controller) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		if loadErr := c.store.Resync(ctx); loadErr != nil {
			c.logger.Debug("reload after failed delete", zap.Error(loadErr))
		}
		return err
	}
	if current := c.machine.State().SessionID; current != nil && *current == sessionID {
		c.machine.ClearChat()
	}
	return nil
}

func (c *Controller) RefreshSessions(ctx context.Context) error {
	return c.store.Load(ctx)
}

// Close stops observing the conversation, cancels a pending session list
// refresh and waits for it to return. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.unsubscribe()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.changes)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
