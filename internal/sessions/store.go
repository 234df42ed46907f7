// Package sessions keeps the sidebar's list of chat sessions for one user.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
)

// API is the part of the chatbot client the store needs.
type API interface {
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

// Snapshot is a copy of the store's state for rendering.
type Snapshot struct {
	Sessions []models.ChatSession
	Loading  bool
	Error    string
}

type Store struct {
	api    API
	userID string
	logger *zap.Logger
	group  singleflight.Group

	mu       sync.Mutex
	sessions []models.ChatSession
	loading  bool
	err      string

	observed     bool
	activeIsNone bool
}

func New(api API, userID string, logger *zap.Logger) *Store {
	return &Store{api: api, userID: userID, logger: logging.OrNop(logger), sessions: []models.ChatSession{}}
}

// Load fetches every session of the user and replaces the list wholesale.
// Concurrent calls share one request, which outlives any single caller's
// cancellation. On failure the previous list is kept and the error is recorded.
func (s *Store) Load(ctx context.Context) error {
	return s.load(ctx, false)
}

// Resync reloads the list like Load but keeps an error recorded earlier, such
// as a refused delete, when the reload itself succeeds.
func (s *Store) Resync(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Store) load(ctx context.Context, keepErr bool) error {
	s.mu.Lock()
	s.loading = true
	prevErr := s.err
	s.err = ""
	s.mu.Unlock()

	ch := s.group.DoChan("load", func() (any, error) {
		return s.api.ListSessions(context.WithoutCancel(ctx), s.userID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err := res.Err; err != nil {
		if errors.Is(err, context.Canceled) {
			if keepErr {
				s.err = prevErr
			}
		} else {
			s.err = err.Error()
		}
		s.logger.Debug("session list load failed", zap.String("user_id", s.userID), zap.Error(err))
		return err
	}
	if keepErr {
		s.err = prevErr
	}
	fetched := res.Val.([]models.ChatSession)
	if fetched == nil {
		fetched = []models.ChatSession{}
	}
	if res.Shared {
		fetched = cloneSessions(fetched)
	}
	s.sessions = fetched
	return nil
}

// Delete asks the server to delete the session and drops it from the list once
// the server agrees. A failure is recorded and the list left alone; whether to
// reload is up to the caller.
func (s *Store) Delete(ctx context.Context, sessionID int64) error {
	if err := s.api.DeleteSession(ctx, sessionID); err != nil {
		s.mu.Lock()
		s.err = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("delete session %d: %w", sessionID, err)
	}

	s.mu.Lock()
	kept := s.sessions[:0:0]
	for _, session := range s.sessions {
		if session.ID != sessionID {
			kept = append(kept, session)
		}
	}
	s.sessions = kept
	s.mu.Unlock()
	return nil
}

// ActiveSessionChanged is told about every active session id the conversation
// takes. The list is reloaded on the first call and whenever the id becomes nil,
// so sessions created by earlier sends show up. It reports whether a reload ran.
func (s *Store) ActiveSessionChanged(ctx context.Context, sessionID *int64) (bool, error) {
	s.mu.Lock()
	first := !s.observed
	becameNone := sessionID == nil && !s.activeIsNone
	s.observed = true
	s.activeIsNone = sessionID == nil
	s.mu.Unlock()

	if !first && !becameNone {
		return false, nil
	}
	return true, s.Load(ctx)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Sessions: cloneSessions(s.sessions), Loading: s.loading, Error: s.err}
}

func cloneSessions(in []models.ChatSession) []models.ChatSession {
	out := make([]models.ChatSession, len(in))
	for i, session := range in {
		out[i] = session.Clone()
	}
	return out
}
