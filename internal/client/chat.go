package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/models"
)

// ChatClient calls the chatbot API rooted at baseURL (for example
// http://localhost:8000/api/chatbot).
type ChatClient struct {
	t transport
}

func NewChatClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ChatClient {
	return &ChatClient{t: newTransport(baseURL, timeout, logger)}
}

func (c *ChatClient) SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.t.do(ctx, http.MethodPost, "/chat/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ChatClient) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := c.t.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/sessions/", nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *ChatClient) DeleteSession(ctx context.Context, sessionID int64) error {
	return c.t.do(ctx, http.MethodDelete, fmt.Sprintf("/sessions/delete/%d/", sessionID), nil, nil, nil)
}

// ListVenues returns the venues currently open for booking.
func (c *ChatClient) ListVenues(ctx context.Context) ([]models.Venue, error) {
	var venues []models.Venue
	if err := c.t.do(ctx, http.MethodGet, "/venues/", nil, nil, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

func (c *ChatClient) VenueRecommendations(ctx context.Context, message string) (string, error) {
	var resp models.RecommendationResponse
	if err := c.t.do(ctx, http.MethodPost, "/venues/recommendations/", nil, models.RecommendationRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Recommendations, nil
}

func (c *ChatClient) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.t.do(ctx, http.MethodGet, "/health/", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
