// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// AI providers.
const (
	AIProviderGemini    = "gemini"
	AIProviderAnthropic = "anthropic"
	AIProviderNone      = "none"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	LogLevel            slog.Level
	DBPath              string
	TranscriptsEnabled  bool
	TranscriptRetention time.Duration
	BrandName           string
	SupportTriggers     []string
	DedupeWindow        time.Duration
	CORSOrigins         []string
	AdminToken          string
	RateLimit           RateLimitConfig

	Sessions SessionConfig
	AI       AIConfig
	Notify   NotifyConfig
	Crisp    CrispConfig
}

// RateLimitConfig bounds inbound requests per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// SessionConfig selects where conversation state lives.
type SessionConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration
}

// AIConfig selects and configures the answer provider.
type AIConfig struct {
	Provider       string
	GeminiAPIKey   string
	GeminiModel    string
	AnthropicKey   string
	AnthropicModel string
	Timeout        time.Duration
}

// NotifyConfig configures escalation alert channels. A channel with empty
// settings is disabled.
type NotifyConfig struct {
	SlackWebhookURL   string
	MatrixHomeserver  string
	MatrixUserID      string
	MatrixAccessToken string
	MatrixRoomID      string
	AMQPURL           string
	AMQPExchange      string
	QueueSize         int
	Timeout           time.Duration
}

// CrispConfig holds Crisp plugin credentials.
type CrispConfig struct {
	WebsiteID     string
	TokenID       string
	TokenKey      string
	WebhookSecret string
	Timeout       time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            parseLevel(getEnv("LOG_LEVEL", "info")),
		DBPath:              getEnv("DB_PATH", "./data/chatbot.db"),
		TranscriptsEnabled:  getEnvBool("TRANSCRIPTS_ENABLED", true),
		TranscriptRetention: getEnvDuration("TRANSCRIPT_RETENTION", 30*24*time.Hour),
		BrandName:           getEnv("BRAND_NAME", "PurifyX"),
		SupportTriggers:     getEnvList("SUPPORT_TRIGGERS", []string{"refund", "billing"}),
		DedupeWindow:        getEnvDuration("DEDUPE_WINDOW", 10*time.Second),
		CORSOrigins:         getEnvList("CORS_ORIGINS", []string{"*"}),
		AdminToken:          getEnv("ADMIN_TOKEN", ""),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Sessions: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory)),
			TTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			LockTTL:       getEnvDuration("SESSION_LOCK_TTL", 45*time.Second),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(getEnv("AI_PROVIDER", AIProviderGemini)),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			Timeout:        getEnvDuration("AI_TIMEOUT", 20*time.Second),
		},
		Notify: NotifyConfig{
			SlackWebhookURL:   getEnv("SLACK_WEBHOOK_URL", ""),
			MatrixHomeserver:  getEnv("MATRIX_HOMESERVER", ""),
			MatrixUserID:      getEnv("MATRIX_USER_ID", ""),
			MatrixAccessToken: getEnv("MATRIX_ACCESS_TOKEN", ""),
			MatrixRoomID:      getEnv("MATRIX_ROOM_ID", ""),
			AMQPURL:           getEnv("AMQP_URL", ""),
			AMQPExchange:      getEnv("AMQP_EXCHANGE", "chatbot.escalations"),
			QueueSize:         getEnvInt("NOTIFY_QUEUE_SIZE", 64),
			Timeout:           getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Crisp: CrispConfig{
			WebsiteID:     getEnv("CRISP_WEBSITE_ID", ""),
			TokenID:       getEnv("CRISP_TOKEN_ID", ""),
			TokenKey:      getEnv("CRISP_TOKEN_KEY", ""),
			WebhookSecret: getEnv("CRISP_WEBHOOK_SECRET", ""),
			Timeout:       getEnvDuration("CRISP_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.DedupeWindow <= 0 {
		return errors.New("DEDUPE_WINDOW must be > 0")
	}

	switch c.Sessions.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Sessions.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
		if turn := c.AI.Timeout + c.Crisp.Timeout; c.Sessions.LockTTL <= turn {
			return fmt.Errorf("SESSION_LOCK_TTL must exceed AI_TIMEOUT + CRISP_TIMEOUT (%s)", turn)
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendMemory, SessionBackendRedis, c.Sessions.Backend)
	}

	switch c.AI.Provider {
	case AIProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	case AIProviderAnthropic:
		if c.AI.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic")
		}
	case AIProviderNone:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of gemini, anthropic, none; got %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be > 0")
	}

	if c.Notify.QueueSize <= 0 {
		return errors.New("NOTIFY_QUEUE_SIZE must be > 0")
	}
	if c.Notify.MatrixHomeserver != "" && (c.Notify.MatrixAccessToken == "" || c.Notify.MatrixRoomID == "") {
		return errors.New("MATRIX_ACCESS_TOKEN and MATRIX_ROOM_ID are required when MATRIX_HOMESERVER is set")
	}
	if c.RateLimit.Requests < 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be >= 0")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
