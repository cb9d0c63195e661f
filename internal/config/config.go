package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config holds all configuration for the application
type Config struct {
	HTTPAddr          string
	PublicBaseURL     string
	LogLevel          string
	ReplicateAPIToken string
	IdentitySecret    string
	SessionSecret     string
	SessionTTL        time.Duration
	StoragePath       string
	ProviderTimeout   time.Duration
	SweepSchedule     string
	SweepGracePeriod  time.Duration
	DB                DBConfig
}

// Load loads the configuration from environment variables. A .env file is
// read when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		// REPLICATE_API_TOKEN is deliberately not validated here: its
		// absence is surfaced on the first generation call.
		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		IdentitySecret:    os.Getenv("IDENTITY_SECRET"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		PublicBaseURL:     os.Getenv("PUBLIC_BASE_URL"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		StoragePath:       os.Getenv("STORAGE_PATH"),
		SweepSchedule:     os.Getenv("SWEEP_SCHEDULE"),
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = ":8080"
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = "http://localhost:8080"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.StoragePath == "" {
		config.StoragePath = "data/images"
	}
	if config.SweepSchedule == "" {
		config.SweepSchedule = "0 */10 * * * *" // every 10 minutes
	}

	if ttl, err := strconv.Atoi(os.Getenv("SESSION_TTL_HOURS")); err == nil {
		config.SessionTTL = time.Duration(ttl) * time.Hour
	} else {
		config.SessionTTL = 7 * 24 * time.Hour // default value
	}

	if timeout, err := strconv.Atoi(os.Getenv("PROVIDER_TIMEOUT")); err == nil {
		config.ProviderTimeout = time.Duration(timeout) * time.Second
	} else {
		config.ProviderTimeout = 120 * time.Second // default value
	}

	if grace, err := strconv.Atoi(os.Getenv("SWEEP_GRACE_MINUTES")); err == nil {
		config.SweepGracePeriod = time.Duration(grace) * time.Minute
	} else {
		config.SweepGracePeriod = time.Hour // default value
	}

	// Load database configuration
	dbConfig := DBConfig{
		Host:     os.Getenv("DB_HOST"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		SSLMode:  os.Getenv("DB_SSL_MODE"),
	}

	// Parse database port
	if port, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		dbConfig.Port = port
	} else {
		dbConfig.Port = 5432 // default PostgreSQL port
	}

	// Parse connection pool settings
	if maxOpenConns, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil {
		dbConfig.MaxOpenConns = maxOpenConns
	} else {
		dbConfig.MaxOpenConns = 25 // default value
	}

	if maxIdleConns, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS")); err == nil {
		dbConfig.MaxIdleConns = maxIdleConns
	} else {
		dbConfig.MaxIdleConns = 25 // default value
	}

	if connMaxLifetime, err := strconv.Atoi(os.Getenv("DB_CONN_MAX_LIFETIME")); err == nil {
		dbConfig.ConnMaxLifetime = time.Duration(connMaxLifetime) * time.Second
	} else {
		dbConfig.ConnMaxLifetime = 5 * time.Minute // default value
	}

	config.DB = dbConfig

	// Validate required fields
	if config.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if config.IdentitySecret == "" {
		return nil, fmt.Errorf("IDENTITY_SECRET is required")
	}

	// Validate database configuration
	if config.DB.Host == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	if config.DB.User == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if config.DB.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if config.DB.Database == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}
