package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	StorageBackend string // "file" or "minio"
	StoragePath    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	GenAIAPIKey  string
	GenAIModel   string
	GenAIBaseURL string

	RetryMaxAttempts       int
	RetryBaseDelay         time.Duration
	RetryMaxDelay          time.Duration
	RetryPerAttemptTimeout time.Duration

	TruncateOverBudget bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RequestDeadline  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "enhancements"),
		MinioSecure:    getEnvBool("MINIO_SECURE", false),

		GenAIAPIKey:  os.Getenv("GENAI_API_KEY"),
		GenAIModel:   getEnv("GENAI_MODEL", "gemini-2.5-flash-image"),
		GenAIBaseURL: getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		RetryMaxAttempts:       getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:         time.Second * time.Duration(getEnvInt("RETRY_BASE_DELAY_SECONDS", 2)),
		RetryMaxDelay:          time.Second * time.Duration(getEnvInt("RETRY_MAX_DELAY_SECONDS", 5)),
		RetryPerAttemptTimeout: time.Second * time.Duration(getEnvInt("RETRY_ATTEMPT_TIMEOUT_SECONDS", 20)),

		TruncateOverBudget: getEnvBool("PROMPT_TRUNCATE_OVER_BUDGET", false),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RequestDeadline:  time.Second * time.Duration(getEnvInt("REQUEST_DEADLINE_SECONDS", 110)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GenAIAPIKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}
	if cfg.StorageBackend == "minio" && cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required for the minio storage backend")
	}

	// The write timeout must cover the pipeline's worst case: retries,
	// backoff, and the persistence tail.
	if cfg.HTTPWriteTimeout <= cfg.RequestDeadline {
		cfg.HTTPWriteTimeout = cfg.RequestDeadline + 10*time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
