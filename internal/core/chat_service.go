package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/store"
)

const historyTurns = 6 // Stored messages handed to the responder as conversation history

type ChatService struct {
	dbStore    *store.SQLiteStore
	ragService *RAGService
	responder  Responder
	fallback   FallbackResponder
	logger     *zap.Logger
}

// NewChatService wires the chat flow. A nil responder means replies always come
// from the keyword fallback.
func NewChatService(db *store.SQLiteStore, rag *RAGService, responder Responder, logger *zap.Logger) *ChatService {
	return &ChatService{
		dbStore:    db,
		ragService: rag,
		responder:  responder,
		logger:     logging.OrNop(logger),
	}
}

// SendMessage answers one user message and persists the exchange. Without a
// session id a new session is created together with the first exchange.
func (s *ChatService) SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ErrMissingUser
	}

	var history []models.ChatMessage
	if req.SessionID != nil {
		session, err := s.dbStore.GetSession(ctx, *req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session: %w", err)
		}
		if session == nil || session.UserID != userID {
			return nil, ErrSessionNotFound
		}
		history, err = s.dbStore.GetLastNMessages(ctx, *req.SessionID, historyTurns)
		if err != nil {
			return nil, fmt.Errorf("failed to load session history: %w", err)
		}
	}

	venueContext, err := s.ragService.GetRelevantContext(ctx, text)
	if err != nil {
		s.logger.Warn("could not build venue context", zap.Error(err))
		venueContext = noContextMessage
	}

	reply := s.generate(ctx, history, text, venueContext)

	userMsg := &models.ChatMessage{SenderType: models.SenderUser, MessageText: text}
	botMsg := &models.ChatMessage{SenderType: models.SenderAdmin, ResponseText: models.StringPtr(reply), Resolved: true}
	sessionID, err := s.dbStore.AppendExchange(ctx, req.SessionID, userID, userMsg, botMsg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to store chat exchange: %w", err)
	}

	s.logger.Debug("chat exchange stored",
		zap.Int64("session_id", sessionID),
		zap.Int64("message_id", botMsg.MessageID),
		zap.String("user_id", userID))

	return &models.ChatResponse{Response: reply, SessionID: sessionID, MessageID: botMsg.MessageID}, nil
}

func (s *ChatService) generate(ctx context.Context, history []models.ChatMessage, query, venueContext string) string {
	if s.responder != nil {
		reply, err := s.responder.GenerateResponse(ctx, history, query, venueContext)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply
		}
		s.logger.Warn("responder failed, using fallback", zap.Error(err))
	}
	reply, _ := s.fallback.GenerateResponse(ctx, history, query, venueContext)
	return reply
}

func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	sessions, err := s.dbStore.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, sessionID int64) error {
	deleted, err := s.dbStore.DeleteSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// Recommendations asks the responder for venue suggestions matching a free-text request.
func (s *ChatService) Recommendations(ctx context.Context, message string) (*models.RecommendationResponse, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	venueContext, err := s.ragService.GetRelevantContext(ctx, "venues capacity price "+text)
	if err != nil {
		return nil, fmt.Errorf("failed to build venue context: %w", err)
	}
	reply := s.generate(ctx, nil, recommendationInstruction+text, venueContext)
	return &models.RecommendationResponse{Recommendations: reply}, nil
}

// Health reports database reachability and row counts. A failing database is
// reported in the status rather than as an error.
func (s *ChatService) Health(ctx context.Context) models.HealthStatus {
	if err := s.dbStore.Ping(ctx); err != nil {
		return models.HealthStatus{Status: "unhealthy", Database: "disconnected", Error: err.Error()}
	}
	venues, messages, err := s.dbStore.Counts(ctx)
	if err != nil {
		return models.HealthStatus{Status: "unhealthy", Database: "connected", Error: err.Error()}
	}
	return models.HealthStatus{Status: "healthy", Database: "connected", VenuesCount: venues, MessagesCount: messages}
}
