// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// HTTP
	Port string

	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DatabaseURLOverride string
	DBHost              string
	DBPort              int
	DBName              string
	DBUser              string
	DBPassword          string

	// Redis (optional, empty disables the rank cache)
	RedisURL     string
	RankCacheTTL time.Duration

	// SES
	SESSenderEmail string
	DashboardURL   string

	// Scoring
	ScoreBufferWidth  float64
	ScoreBufferCredit float64

	// Browse
	DefaultPageSize    int
	MaxPageSize        int
	CandidatePoolLimit int

	// Application
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		AWSRegion: getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:  getEnv("S3_BUCKET", "matrimony-profile-imports-dev"),

		DatabaseURLOverride: getEnv("DATABASE_URL", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnvInt("DB_PORT", 5432),
		DBName:              getEnv("DB_NAME", "matrimony"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),

		RedisURL:     getEnv("REDIS_URL", ""),
		RankCacheTTL: getEnvDuration("RANK_CACHE_TTL", 5*time.Minute),

		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),
		DashboardURL:   getEnv("DASHBOARD_URL", ""),

		ScoreBufferWidth:  getEnvFloat("SCORE_BUFFER_WIDTH", 5),
		ScoreBufferCredit: getEnvFloat("SCORE_BUFFER_CREDIT", 0.5),

		DefaultPageSize:    getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:        getEnvInt("MAX_PAGE_SIZE", 100),
		CandidatePoolLimit: getEnvInt("CANDIDATE_POOL_LIMIT", 5000),

		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the scoring constants and paging limits.
func (c *Config) Validate() error {
	if c.ScoreBufferWidth < 0 {
		return errors.New("SCORE_BUFFER_WIDTH cannot be negative")
	}
	if c.ScoreBufferCredit < 0 || c.ScoreBufferCredit > 1 {
		return fmt.Errorf("SCORE_BUFFER_CREDIT must be between 0 and 1, got %v", c.ScoreBufferCredit)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE (%d) exceeds MAX_PAGE_SIZE (%d)", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.CandidatePoolLimit <= 0 {
		return errors.New("CANDIDATE_POOL_LIMIT must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	if c.DatabaseURLOverride != "" {
		return c.DatabaseURLOverride
	}
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// IsProduction reports whether the service runs in the prod stage.
func (c *Config) IsProduction() bool {
	return c.Stage == "prod" || c.Stage == "production"
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
