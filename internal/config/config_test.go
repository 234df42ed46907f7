package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_BASE_URL", "CHATBOT_API_URL", "BOOKING_API_URL", "REQUEST_TIMEOUT_MS",
		"APP_NAME", "APP_VERSION", "DEBUG", "CHAT_USER_ID",
		"HTTP_PORT", "DATABASE_URL", "LOG_LEVEL", "GEMINI_API_KEY", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.Client.BaseURL)
	assert.Equal(t, "http://localhost:8000/api/chatbot", cfg.Client.ChatbotURL)
	assert.Equal(t, "http://localhost:8000/api/booking", cfg.Client.BookingURL)
	assert.Equal(t, 30*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, "Venue Booking Chatbot", cfg.Client.AppName)
	assert.Equal(t, "1.0.0", cfg.Client.AppVersion)
	assert.False(t, cfg.Client.Debug)
	assert.Equal(t, "user-123", cfg.Client.UserID)

	assert.Equal(t, "8000", cfg.Server.HTTPPort)
	assert.Equal(t, "INFO", cfg.Server.LogLevel)
	assert.False(t, cfg.Server.LLMEnabled())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://venues.example.com/api/")
	t.Setenv("BOOKING_API_URL", "https://booking.example.com/v2/")
	t.Setenv("REQUEST_TIMEOUT_MS", "1500")
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://venues.example.com/api/chatbot", cfg.Client.ChatbotURL)
	assert.Equal(t, "https://booking.example.com/v2", cfg.Client.BookingURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Client.RequestTimeout)
	assert.True(t, cfg.Client.Debug)
	assert.True(t, cfg.Server.Debug())
	assert.True(t, cfg.Server.LLMEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "sometimes")
	_, err := Load()
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("REQUEST_TIMEOUT_MS", "-5")
	_, err = Load()
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("HTTP_PORT", "80 80")
	_, err = Load()
	require.Error(t, err)
}
