package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/penportal-api/internal/ranking"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Ranking engine configuration
	Ranking RankingConfig

	// Feed configuration
	Feed FeedConfig

	// Auth configuration
	Auth AuthConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// RankingConfig holds the trending score parameters and background intervals
type RankingConfig struct {
	Gravity        float64
	AgeOffsetHours float64
	ViewWeight     float64
	LikeWeight     float64
	CommentWeight  float64
	IndexDegree    int
	RerankInterval time.Duration // 0 disables the sweep
	FlushInterval  time.Duration
	FlushWorkers   int
	FlushBatchSize int
}

// FeedConfig holds feed page sizes
type FeedConfig struct {
	DefaultSize int
	MaxSize     int
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// MinJWTSecretLength is the minimum HS256 key size accepted
const MinJWTSecretLength = 32

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "penportal"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Ranking: RankingConfig{
			Gravity:        getFloatEnv("RANKING_GRAVITY", ranking.DefaultGravity),
			AgeOffsetHours: getFloatEnv("RANKING_AGE_OFFSET_HOURS", ranking.DefaultAgeOffsetHours),
			ViewWeight:     getFloatEnv("RANKING_VIEW_WEIGHT", ranking.DefaultViewWeight),
			LikeWeight:     getFloatEnv("RANKING_LIKE_WEIGHT", ranking.DefaultLikeWeight),
			CommentWeight:  getFloatEnv("RANKING_COMMENT_WEIGHT", ranking.DefaultCommentWeight),
			IndexDegree:    getIntEnv("RANKING_INDEX_DEGREE", ranking.DefaultIndexDegree),
			RerankInterval: getDurationEnv("RANKING_RERANK_INTERVAL", 0),
			FlushInterval:  getDurationEnv("RANKING_FLUSH_INTERVAL", 5*time.Second),
			FlushWorkers:   getIntEnv("RANKING_FLUSH_WORKERS", 2),
			FlushBatchSize: getIntEnv("RANKING_FLUSH_BATCH_SIZE", 500),
		},
		Feed: FeedConfig{
			DefaultSize: getIntEnv("FEED_DEFAULT_SIZE", 10),
			MaxSize:     getIntEnv("FEED_MAX_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", "penportal"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if err := c.Ranking.Calculator().Validate(); err != nil {
		return fmt.Errorf("ranking configuration: %w", err)
	}
	if c.Ranking.FlushInterval <= 0 {
		return fmt.Errorf("RANKING_FLUSH_INTERVAL must be positive")
	}
	if c.Ranking.RerankInterval < 0 {
		return fmt.Errorf("RANKING_RERANK_INTERVAL must not be negative")
	}
	if c.Ranking.FlushWorkers < 1 || c.Ranking.FlushBatchSize < 1 {
		return fmt.Errorf("RANKING_FLUSH_WORKERS and RANKING_FLUSH_BATCH_SIZE must be at least 1")
	}
	if c.Feed.DefaultSize < 1 || c.Feed.MaxSize < c.Feed.DefaultSize {
		return fmt.Errorf("FEED_DEFAULT_SIZE must be at least 1 and not exceed FEED_MAX_SIZE")
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	}
	return nil
}

// Calculator returns the score calculator described by the configuration
func (r RankingConfig) Calculator() ranking.Calculator {
	return ranking.Calculator{
		Gravity:        r.Gravity,
		AgeOffsetHours: r.AgeOffsetHours,
		ViewWeight:     r.ViewWeight,
		LikeWeight:     r.LikeWeight,
		CommentWeight:  r.CommentWeight,
	}
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
