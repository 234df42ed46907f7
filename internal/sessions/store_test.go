package sessions_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/sessions"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAPI struct {
	mu        sync.Mutex
	sessions  []models.ChatSession
	listErr   error
	deleteErr error
	lists     atomic.Int32
	gate      chan struct{} // when set, ListSessions blocks until it is closed
}

func (f *fakeAPI) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	f.lists.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ChatSession, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeAPI) DeleteSession(_ context.Context, sessionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, s := range f.sessions {
		if s.ID == sessionID {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func userMsg(text string) models.ChatMessage {
	return models.ChatMessage{SenderType: models.SenderUser, MessageText: text}
}

func botMsg(text string) models.ChatMessage {
	return models.ChatMessage{SenderType: models.SenderAdmin, ResponseText: models.StringPtr(text)}
}

func TestLoadReplacesListAndKeepsItOnFailure(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1}, {ID: 2}}}
	store := sessions.New(api, "user-123", nil)
	ctx := context.Background()

	require.NoError(t, store.Load(ctx))
	snap := store.Snapshot()
	assert.Len(t, snap.Sessions, 2)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)

	api.listErr = errors.New("Network error occurred. Please check your connection.")
	require.Error(t, store.Load(ctx))
	snap = store.Snapshot()
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, "Network error occurred. Please check your connection.", snap.Error)

	api.listErr = nil
	api.sessions = []models.ChatSession{{ID: 3}}
	require.NoError(t, store.Load(ctx))
	snap = store.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, int64(3), snap.Sessions[0].ID)
	assert.Empty(t, snap.Error, "a successful load clears the previous error")
}

func TestConcurrentLoadsShareOneRequest(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1}}, gate: make(chan struct{})}
	store := sessions.New(api, "user-123", nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Load(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return store.Snapshot().Loading && api.lists.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	assert.LessOrEqual(t, api.lists.Load(), int32(5))
	assert.Len(t, store.Snapshot().Sessions, 1)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1}, {ID: 2}}}
	store := sessions.New(api, "user-123", nil)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	require.NoError(t, store.Delete(ctx, 1))
	snap := store.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, int64(2), snap.Sessions[0].ID)

	api.deleteErr = errors.New("Session not found")
	err := store.Delete(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.deleteErr)
	snap = store.Snapshot()
	assert.Len(t, snap.Sessions, 1, "a failed delete leaves the list alone")
	assert.Equal(t, "Session not found", snap.Error)
}

func TestActiveSessionChangedReloadsOnTransitionToNone(t *testing.T) {
	api := &fakeAPI{}
	store := sessions.New(api, "user-123", nil)
	ctx := context.Background()
	id := int64(7)
	other := int64(8)

	steps := []struct {
		id     *int64
		reload bool
	}{
		{&id, true}, // first observation
		{&id, false},
		{&other, false},
		{nil, true},
		{nil, false},
		{&id, false},
		{nil, true},
	}
	for i, step := range steps {
		reloaded, err := store.ActiveSessionChanged(ctx, step.id)
		require.NoError(t, err)
		assert.Equal(t, step.reload, reloaded, "step %d", i)
	}
	assert.Equal(t, int32(3), api.lists.Load())
}

func TestSnapshotIsACopy(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1, Messages: []models.ChatMessage{userMsg("hi")}}}}
	store := sessions.New(api, "user-123", nil)
	require.NoError(t, store.Load(context.Background()))

	snap := store.Snapshot()
	snap.Sessions[0].Messages[0].MessageText = "changed"
	assert.Equal(t, "hi", store.Snapshot().Sessions[0].Messages[0].MessageText)
}

func TestTitleFor(t *testing.T) {
	exactly30 := strings.Repeat("a", 30)
	exactly31 := strings.Repeat("b", 31)

	tests := []struct {
		name    string
		session models.ChatSession
		want    string
	}{
		{"no messages", models.ChatSession{ID: 4}, "Session 4"},
		{"empty first message", models.ChatSession{ID: 5, Messages: []models.ChatMessage{userMsg("")}}, "Session 5"},
		{"short", models.ChatSession{ID: 1, Messages: []models.ChatMessage{userMsg("Hello"), botMsg("Hi there")}}, "Hello"},
		{"exactly 30", models.ChatSession{Messages: []models.ChatMessage{userMsg(exactly30)}}, exactly30},
		{"31 characters", models.ChatSession{Messages: []models.ChatMessage{userMsg(exactly31)}}, strings.Repeat("b", 30) + "..."},
		{"counts characters not bytes", models.ChatSession{Messages: []models.ChatMessage{userMsg(strings.Repeat("é", 30))}}, strings.Repeat("é", 30)},
		{"assistant first uses response text", models.ChatSession{Messages: []models.ChatMessage{botMsg("Welcome")}}, "Welcome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessions.TitleFor(tt.session))
		})
	}
}

func TestPreviewFor(t *testing.T) {
	assert.Equal(t, "No messages yet", sessions.PreviewFor(models.ChatSession{ID: 1}))

	long := strings.Repeat("x", 51)
	session := models.ChatSession{Messages: []models.ChatMessage{userMsg("first"), botMsg(long)}}
	assert.Equal(t, strings.Repeat("x", 50)+"...", sessions.PreviewFor(session))

	session.Messages = append(session.Messages, userMsg(strings.Repeat("y", 50)))
	assert.Equal(t, strings.Repeat("y", 50), sessions.PreviewFor(session))
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2030, 6, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"minutes ago", now.Add(-5 * time.Minute), "Yesterday"},
		{"exactly one day", now.AddDate(0, 0, -1), "Yesterday"},
		{"just over a day", now.Add(-26 * time.Hour), "2 days ago"},
		{"three days", now.AddDate(0, 0, -3), "3 days ago"},
		{"six days", now.AddDate(0, 0, -6), "6 days ago"},
		{"just over six days", now.Add(-6*24*time.Hour - time.Hour), "Jun 09, 2030"},
		{"a week", now.AddDate(0, 0, -7), "Jun 08, 2030"},
		{"same instant", now, "0 days ago"},
		{"future counts by distance", now.Add(20 * time.Hour), "Yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessions.RelativeDate(tt.ts, now))
		})
	}
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1}}, gate: make(chan struct{})}
	store := sessions.New(api, "user-123", nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- store.Load(ctx) }()
	require.Eventually(t, func() bool { return api.lists.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- store.Load(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(api.gate)
	require.NoError(t, <-second)
	snap := store.Snapshot()
	assert.Len(t, snap.Sessions, 1)
	assert.Empty(t, snap.Error)
	assert.Equal(t, int32(1), api.lists.Load())
}

func TestResyncKeepsDeleteError(t *testing.T) {
	api := &fakeAPI{sessions: []models.ChatSession{{ID: 1}}}
	store := sessions.New(api, "user-123", nil)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	api.deleteErr = errors.New("Failed to delete chat session")
	require.Error(t, store.Delete(ctx, 1))

	api.mu.Lock()
	api.sessions = append(api.sessions, models.ChatSession{ID: 2})
	api.mu.Unlock()
	require.NoError(t, store.Resync(ctx))
	snap := store.Snapshot()
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, "Failed to delete chat session", snap.Error)

	require.NoError(t, store.Load(ctx))
	assert.Empty(t, store.Snapshot().Error, "a plain load clears it")
}
