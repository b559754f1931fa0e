package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppPort               string
	AppEnv                string
	AppURL                string
	AppCorsAllowedOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	GoogleClientID string

	JWTSecret string
	JWTExp    int

	S3BucketPublic  string
	S3BucketPrivate string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PublicDomain  string

	ChatPreviewMaxRunes  int
	ChatMessageMaxLength int
	ChatHistoryPageSize  int
	ChatSendRateSeconds  float64
	ChatSendBurst        int
	ChatCreateRateLimit  int
	ChatCreateRateWindow time.Duration
	AuthRateLimit        int
	AuthRateWindow       time.Duration
	FeedChannel          string
	FeedBackoffBase      time.Duration
	FeedBackoffMax       time.Duration
	UnreadReconcileCron  string
	TrustedProxyCIDRs    []string
}

func LoadAppConfig() *AppConfig {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from system environment variables")
	}

	return &AppConfig{
		AppPort:               mustGetEnv("APP_PORT"),
		AppEnv:                mustGetEnv("APP_ENV"),
		AppURL:                getEnv("APP_URL", "http://localhost:8080"),
		AppCorsAllowedOrigins: strings.Split(getEnv("APP_CORS_ALLOWED_ORIGINS", "*"), ","),

		DBHost:     mustGetEnv("DB_HOST"),
		DBPort:     mustGetEnv("DB_PORT"),
		DBUser:     mustGetEnv("DB_USER"),
		DBPassword: mustGetEnv("DB_PASSWORD"),
		DBName:     mustGetEnv("DB_NAME"),
		DBSSLMode:  mustGetEnv("DB_SSLMODE"),
		DBMigrate:  mustGetEnvAsBool("DB_MIGRATE"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExp:    mustGetEnvAsInt("JWT_EXP"),

		S3BucketPublic:  getEnv("S3_BUCKET_PUBLIC", ""),
		S3BucketPrivate: getEnv("S3_BUCKET_PRIVATE", ""),
		S3Region:        getEnv("S3_REGION", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3PublicDomain:  getEnv("S3_PUBLIC_DOMAIN", ""),

		ChatPreviewMaxRunes:  getEnvAsInt("CHAT_PREVIEW_MAX_RUNES", 80),
		ChatMessageMaxLength: getEnvAsInt("CHAT_MESSAGE_MAX_LENGTH", 4000),
		ChatHistoryPageSize:  getEnvAsInt("CHAT_HISTORY_PAGE_SIZE", 50),
		ChatSendRateSeconds:  getEnvAsFloat("CHAT_SEND_RATE_SECONDS", 0.5),
		ChatSendBurst:        getEnvAsInt("CHAT_SEND_BURST", 5),
		ChatCreateRateLimit:  getEnvAsInt("CHAT_CREATE_RATE_LIMIT", 20),
		ChatCreateRateWindow: getEnvAsDuration("CHAT_CREATE_RATE_WINDOW", time.Minute),
		AuthRateLimit:        getEnvAsInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow:       getEnvAsDuration("AUTH_RATE_WINDOW", time.Minute),
		FeedChannel:          getEnv("FEED_CHANNEL", "petadopt:changes"),
		FeedBackoffBase:      time.Duration(getEnvAsInt("FEED_BACKOFF_BASE_MS", 200)) * time.Millisecond,
		FeedBackoffMax:       time.Duration(getEnvAsInt("FEED_BACKOFF_MAX_MS", 10000)) * time.Millisecond,
		UnreadReconcileCron:  getEnv("UNREAD_RECONCILE_CRON", "15 3 * * *"),
		TrustedProxyCIDRs:    getEnvAsList("TRUSTED_PROXY_CIDRS"),
	}
}

func (c *AppConfig) DBConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		slog.Error("Environment variable is required but not set", "key", key)
		os.Exit(1)
	}
	return value
}

func mustGetEnvAsBool(key string) bool {
	valStr := mustGetEnv(key)
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		slog.Error("Environment variable must be a boolean (true/false)", "key", key, "value", valStr)
		os.Exit(1)
	}
	return val
}

func mustGetEnvAsInt(key string) int {
	valStr := mustGetEnv(key)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Error("Environment variable must be an integer", "key", key, "value", valStr)
		os.Exit(1)
	}
	return val
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("Environment variable must be an integer, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		slog.Warn("Environment variable must be a float, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		slog.Warn("Environment variable must be a duration, using fallback", "key", key, "value", valStr, "fallback", fallback)
		return fallback
	}
	return val
}

func getEnvAsList(key string) []string {
	valStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valStr) == "" {
		return nil
	}

	parts := strings.Split(valStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
