package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// 実行環境名。
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// MaxWebhookTolerance はWebhookのリプレイ許容幅の上限。短くすることのみ許可する。
const MaxWebhookTolerance = 5 * time.Minute

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Clerk
	ClerkSecretKey     string
	ClerkWebhookSecret string

	// Webhook
	WebhookTolerance    time.Duration
	WebhookMaxBodyBytes int64

	// Rate Limit
	RateLimitGeneral int

	// Server
	Environment string
	ServerPort  string
	APIPrefix   string

	// Logging
	LogLevel slog.Level

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.ClerkSecretKey = os.Getenv("CLERK_SECRET_KEY")
	if cfg.ClerkSecretKey == "" {
		missing = append(missing, "CLERK_SECRET_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if !strings.HasPrefix(cfg.ClerkSecretKey, "sk_") {
		return nil, fmt.Errorf("CLERK_SECRET_KEY must start with \"sk_\"")
	}

	cfg.ClerkWebhookSecret = os.Getenv("CLERK_WEBHOOK_SECRET")
	cfg.Environment = strings.ToLower(getEnvString("ENVIRONMENT", EnvDevelopment))
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.APIPrefix = "/" + strings.Trim(getEnvString("API_PREFIX", "/api/v1"), "/")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.WebhookTolerance = getEnvDuration("WEBHOOK_TOLERANCE", MaxWebhookTolerance)
	if cfg.WebhookTolerance > MaxWebhookTolerance {
		return nil, fmt.Errorf("WEBHOOK_TOLERANCE must not exceed %s, got %s", MaxWebhookTolerance, cfg.WebhookTolerance)
	}
	cfg.WebhookMaxBodyBytes = getEnvInt64("WEBHOOK_MAX_BODY_BYTES", 1<<20)

	level, err := parseLogLevel(getEnvString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.ClerkWebhookSecret == "" && !cfg.IsDevelopment() {
		slog.Warn("CLERK_WEBHOOK_SECRETが未設定です。Webhookはすべて拒否されます",
			slog.String("environment", cfg.Environment),
		)
	}

	return cfg, nil
}

// IsDevelopment は開発環境で動作しているかを返す。
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func parseLogLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
