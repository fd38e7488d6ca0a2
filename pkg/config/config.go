package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Ingest        IngestConfig
	Storage       StorageConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxRequestBytes    int
	AllowedOrigins     []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type ProfilingConfig struct {
	Enabled bool
	Port    int
}

// IngestConfig controls normalization and chunked upload reassembly.
type IngestConfig struct {
	SecondaryCurrency string
	ChunkSlots        int
	ChunkIdleTimeout  time.Duration
	SweepSchedule     string
	ChunkThreshold    int

	// MappingRefreshSchedule reloads the classification mapping so replicas
	// pick up replaces made elsewhere. Empty disables the job.
	MappingRefreshSchedule string
}

// StorageConfig selects the raw upload archive backend.
type StorageConfig struct {
	Type               string // "local" or "gcs"
	LocalPath          string
	GCSBucket          string
	GCSCredentialsFile string
	Prefix             string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
			MaxRequestBytes:    getEnvAsInt("SERVER_MAX_REQUEST_BYTES", 4*1024*1024),
			AllowedOrigins:     getEnvAsSlice("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "dashboard-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "changeme"),
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Profiling: ProfilingConfig{
			Enabled: getEnvAsBool("PPROF_ENABLED", false),
			Port:    getEnvAsInt("PPROF_PORT", 6060),
		},
		Ingest: IngestConfig{
			SecondaryCurrency: getEnv("INGEST_SECONDARY_CURRENCY", "SGD"),
			ChunkSlots:        getEnvAsInt("INGEST_CHUNK_SLOTS", 64),
			ChunkIdleTimeout:  getEnvAsDuration("INGEST_CHUNK_IDLE_TIMEOUT", 10*time.Minute),
			SweepSchedule:     getEnv("INGEST_SWEEP_SCHEDULE", "@every 1m"),
			ChunkThreshold:    getEnvAsInt("INGEST_CHUNK_THRESHOLD_BYTES", 3_500_000),

			MappingRefreshSchedule: getEnv("CLASSIFICATION_REFRESH_SCHEDULE", "@every 5m"),
		},
		Storage: StorageConfig{
			Type:               getEnv("STORAGE_TYPE", "local"),
			LocalPath:          getEnv("STORAGE_LOCAL_PATH", "./data/uploads"),
			GCSBucket:          getEnv("STORAGE_GCS_BUCKET", ""),
			GCSCredentialsFile: getEnv("STORAGE_GCS_CREDENTIALS_FILE", ""),
			Prefix:             getEnv("STORAGE_PREFIX", "raw"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Ingest.ChunkSlots <= 0 {
		return errors.New("INGEST_CHUNK_SLOTS must be positive")
	}
	if c.Ingest.ChunkThreshold >= c.Server.MaxRequestBytes {
		return fmt.Errorf("INGEST_CHUNK_THRESHOLD_BYTES (%d) must be below SERVER_MAX_REQUEST_BYTES (%d)",
			c.Ingest.ChunkThreshold, c.Server.MaxRequestBytes)
	}
	if c.Storage.Type == "gcs" && c.Storage.GCSBucket == "" {
		return errors.New("STORAGE_GCS_BUCKET is required for gcs storage")
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
