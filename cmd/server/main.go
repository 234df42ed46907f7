package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/api"
	"gwi.com/venue-assistant/internal/config"
	"gwi.com/venue-assistant/internal/core"
	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/store"
)

func main() {
	seedFlag := flag.Bool("seed", false, "Insert the sample venues if the venue table is empty")
	seedOnly := flag.Bool("seed-only", false, "Insert the sample venues and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Debug())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg.Server, logger, *seedFlag || *seedOnly, *seedOnly); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger, seed, seedOnly bool) error {
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	// A nil Responder or Embedder keeps the services on keyword fallbacks.
	var (
		responder core.Responder
		embedder  core.Embedder
	)
	if cfg.LLMEnabled() {
		llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Warn("continuing without Gemini", zap.Error(err))
		} else {
			defer llmService.Close()
			responder, embedder = llmService, llmService
			logger.Info("Gemini service initialized")
		}
	} else {
		logger.Info("GEMINI_API_KEY not set, using keyword responses")
	}

	ragService := core.NewRAGService(dbStore, embedder, logger)
	bookingService := core.NewBookingService(dbStore, ragService, logger)
	chatService := core.NewChatService(dbStore, ragService, responder, logger)

	if seed {
		n, err := bookingService.EnsureSampleVenues(ctx)
		if err != nil {
			return fmt.Errorf("seeding venues: %w", err)
		}
		logger.Info("sample venues ensured", zap.Int("inserted", n))
		if seedOnly {
			return nil
		}
	}

	router := api.NewRouter(
		api.NewChatHandler(chatService, bookingService, logger),
		api.NewBookingHandler(bookingService, logger),
		cfg.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // LLM calls can take time
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr))
	if err := runServer(ctx, srv); err != nil {
		return err
	}
	logger.Info("server exited gracefully")
	return nil
}

// runServer serves until ctx is done, then shuts down with a grace period.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
