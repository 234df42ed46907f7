package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/config"
	"gwi.com/venue-assistant/internal/store"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerReportsListenError(t *testing.T) {
	srv := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}
	assert.Error(t, runServer(context.Background(), srv))
}

func TestSeedOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed.db")
	cfg := config.ServerConfig{HTTPPort: "0", DatabaseURL: dbPath}

	require.NoError(t, run(context.Background(), cfg, zap.NewNop(), true, true))

	db, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer db.Close()
	venues, _, err := db.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, venues)
}
