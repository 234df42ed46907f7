package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL     = "http://localhost:8000/api"
	defaultRequestTimeout = 30000 // milliseconds
	defaultUserID         = "user-123"
)

// Config holds everything read from the environment at startup. It is never reloaded.
type Config struct {
	Client ClientConfig
	Server ServerConfig
}

// ClientConfig is the surface the chat widget and CLI recognise.
type ClientConfig struct {
	BaseURL        string
	ChatbotURL     string
	BookingURL     string
	RequestTimeout time.Duration
	AppName        string
	AppVersion     string
	Debug          bool
	UserID         string
}

type ServerConfig struct {
	HTTPPort       string
	DatabaseURL    string
	LogLevel       string
	GeminiAPIKey   string
	AllowedOrigins []string
}

// Debug reports whether verbose logging was requested for the server.
func (c ServerConfig) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

// LLMEnabled reports whether a Gemini key is configured.
func (c ServerConfig) LLMEnabled() bool {
	return c.GeminiAPIKey != ""
}

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load reads the client and server configuration from the environment.
func Load() (*Config, error) {
	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	return &Config{Client: client, Server: server}, nil
}

func loadClientConfig() (ClientConfig, error) {
	base := strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBaseURL), "/")

	timeoutMS := getEnvAsInt("REQUEST_TIMEOUT_MS", defaultRequestTimeout)
	if timeoutMS <= 0 {
		return ClientConfig{}, fmt.Errorf("invalid REQUEST_TIMEOUT_MS value %d: must be positive", timeoutMS)
	}

	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		BaseURL:        base,
		ChatbotURL:     strings.TrimRight(getEnv("CHATBOT_API_URL", base+"/chatbot"), "/"),
		BookingURL:     strings.TrimRight(getEnv("BOOKING_API_URL", base+"/booking"), "/"),
		RequestTimeout: time.Duration(timeoutMS) * time.Millisecond,
		AppName:        getEnv("APP_NAME", "Venue Booking Chatbot"),
		AppVersion:     getEnv("APP_VERSION", "1.0.0"),
		Debug:          debug,
		UserID:         getEnv("CHAT_USER_ID", defaultUserID),
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := getEnv("HTTP_PORT", "8000")
	if strings.ContainsAny(port, " :") {
		return ServerConfig{}, fmt.Errorf("invalid HTTP_PORT value: %q", port)
	}

	var origins []string
	for _, o := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return ServerConfig{
		HTTPPort:       port,
		DatabaseURL:    getEnv("DATABASE_URL", "venue_assistant.db"),
		LogLevel:       strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		AllowedOrigins: origins,
	}, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
