package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique consumer name from hostname and PID.
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64

	// Worker (Redis Stream consumer)
	WorkerID          string
	ConsumerGroup     string
	ConsumerBatchSize int
	ConsumerBlockMS   int

	// Classification thresholds
	ClassifyThreshold float64
	InboxThreshold    float64

	// AI quota (per user, per hour)
	AIQuotaPerHour int

	// API rate limit (per user, per minute)
	APIRateLimit int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "lexflow"),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.4),

		WorkerID:          getEnv("WORKER_ID", generateWorkerID()),
		ConsumerGroup:     getEnv("CONSUMER_GROUP", "mailroom-workers"),
		ConsumerBatchSize: getEnvInt("CONSUMER_BATCH_SIZE", 10),
		ConsumerBlockMS:   getEnvInt("CONSUMER_BLOCK_MS", 5000),

		ClassifyThreshold: getEnvFloat("CLASSIFY_THRESHOLD", 0.75),
		InboxThreshold:    getEnvFloat("INBOX_THRESHOLD", 0.40),

		AIQuotaPerHour: getEnvInt("AI_QUOTA_PER_HOUR", 30),

		APIRateLimit: getEnvInt("API_RATE_LIMIT_PER_MIN", 300),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// ConsumerBlock returns the stream read block duration.
func (c *Config) ConsumerBlock() time.Duration {
	return time.Duration(c.ConsumerBlockMS) * time.Millisecond
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
