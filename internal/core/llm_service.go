package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	chatSystemInstruction = "You are the venue booking assistant for a cultural centre. " +
		"Help users with venue bookings, pricing, capacity and availability. " +
		"Be helpful, friendly and professional. Base concrete facts such as venue names, capacities and rates " +
		"only on the database information you are given. If it does not contain the answer, say so."

	recommendationInstruction = "Recommend the most suitable venues for the following request and briefly explain why: "
)

// Responder produces assistant replies.
type Responder interface {
	GenerateResponse(ctx context.Context, history []models.ChatMessage, userQuery, venueContext string) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// LLMService talks to Gemini. It implements both Responder and Embedder.
type LLMService struct {
	client *genai.Client
	logger *zap.Logger
}

func NewLLMService(ctx context.Context, apiKey string, logger *zap.Logger) (*LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, logger: logging.OrNop(logger)}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.logger.Warn("error closing GenAI client", zap.Error(err))
	} else {
		s.logger.Info("GenAI client closed")
	}
}

func (s *LLMService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// GenerateResponse sends the recent session turns as chat history and the
// user's query, prefixed with the venue database context, as the final turn.
func (s *LLMService) GenerateResponse(ctx context.Context, history []models.ChatMessage, userQuery, venueContext string) (string, error) {
	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}

	chatSession := model.StartChat()
	chatSession.History = toGeminiHistory(history)

	prompt := userQuery
	if venueContext != "" {
		prompt = fmt.Sprintf("Current database information:\n\n--- CONTEXT START ---\n%s\n--- CONTEXT END ---\n\nNow, please answer: %s", venueContext, userQuery)
	}

	resp, err := chatSession.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response had no candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			s.logger.Debug("gemini response part was not text", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return responseText.String(), nil
}

// toGeminiHistory maps stored turns onto Gemini roles. System turns are
// dropped and the history must open with a user turn.
func toGeminiHistory(history []models.ChatMessage) []*genai.Content {
	var out []*genai.Content
	for _, msg := range history {
		text := msg.DisplayText()
		if text == "" {
			continue
		}
		var role string
		switch msg.SenderType {
		case models.SenderUser:
			role = "user"
		case models.SenderAdmin:
			role = "model"
		default:
			continue
		}
		if len(out) == 0 && role != "user" {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(text)}})
	}
	return out
}
