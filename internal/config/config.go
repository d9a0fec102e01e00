// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AnalysisConfig holds the tuning knobs of the response-analysis pipeline.
// The defaults are tuning parameters, not correctness requirements.
type AnalysisConfig struct {
	FuzzyMatchThreshold float64 // minimum normalized similarity for a fuzzy mention
	NegationLookback    int     // chars scanned backwards for a negation token
	ContextWindow       int     // chars of context captured around a match
	SentimentWindow     int     // default window size for per-mention sentiment
}

// ValidationConfig bounds the optional citation reachability checks.
type ValidationConfig struct {
	Concurrency    int           // max in-flight HEAD requests per batch
	RequestTimeout time.Duration // per-citation timeout; expiry leaves accessibility unknown
	RatePerSecond  float64       // request rate cap across a batch
}

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	Database    DatabaseConfig
	Analysis    AnalysisConfig
	Validation  ValidationConfig
}

// DatabaseConfig matches the senso-api database configuration structure exactly
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

func Load() *Config {
	// Local .env files are optional; the process environment always wins.
	_ = godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	dbConfig, err := parseDatabaseConfig()
	if err != nil {
		// If DATABASE_URL parsing fails, try individual env vars as fallback
		dbConfig = DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "senso_analysis"),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		}
	}
	config.Database = dbConfig

	config.Analysis = AnalysisConfig{
		FuzzyMatchThreshold: getEnvFloat("FUZZY_MATCH_THRESHOLD", 0.85),
		NegationLookback:    getEnvInt("NEGATION_LOOKBACK_CHARS", 30),
		ContextWindow:       getEnvInt("CONTEXT_WINDOW_CHARS", 100),
		SentimentWindow:     getEnvInt("SENTIMENT_WINDOW_CHARS", 150),
	}

	config.Validation = ValidationConfig{
		Concurrency:    getEnvInt("CITATION_VALIDATION_CONCURRENCY", 5),
		RequestTimeout: getEnvDuration("CITATION_VALIDATION_TIMEOUT", 10*time.Second),
		RatePerSecond:  getEnvFloat("CITATION_VALIDATION_RATE", 10),
	}

	return config
}

func parseDatabaseConfig() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	config := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432, // default
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:], // remove leading slash
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	if password, ok := parsedURL.User.Password(); ok {
		config.Password = password
	}

	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			config.Port = port
		}
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
