package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AWS      AWSConfig
	Composer ComposerConfig
	Queue    QueueConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/composer?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the cover image bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CoversBucket         string
	PresignExpireMinutes int
}

// ComposerConfig holds draft editing defaults.
type ComposerConfig struct {
	GracePeriodMs    int    // undo window for persisted deletions
	TemplateLimit    int    // saved form templates per account
	DefaultAccountID string // used when a draft is created without an account
	ZoneOffset       string // e.g. +08:00
	SessionStartHour int
	SessionEndHour   int
	SessionCapacity  int
}

// QueueConfig holds job queue settings.
type QueueConfig struct {
	RetryBackoffSec int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// GracePeriod returns the deletion grace period.
func (c ComposerConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// Zone parses ZoneOffset ("+08:00", "-0530", "Z") into a fixed zone.
func (c ComposerConfig) Zone() (*time.Location, error) {
	s := strings.TrimSpace(c.ZoneOffset)
	if s == "" || s == "Z" {
		return time.UTC, nil
	}
	layout := "-07:00"
	if !strings.Contains(s, ":") {
		layout = "-0700"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("zone offset %q: %w", c.ZoneOffset, err)
	}
	_, offset := t.Zone()
	return time.FixedZone(s, offset), nil
}

// RetryBackoff returns the delay between job retries.
func (c QueueConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSec) * time.Second
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "composer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 1)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CoversBucket:         getEnv("AWS_S3_COVERS_BUCKET", "event-covers-bucket"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Composer: ComposerConfig{
			GracePeriodMs:    getEnvInt("COMPOSER_GRACE_PERIOD_MS", 5000),
			TemplateLimit:    getEnvInt("COMPOSER_TEMPLATE_LIMIT", 3),
			DefaultAccountID: getEnv("COMPOSER_DEFAULT_ACCOUNT_ID", ""),
			ZoneOffset:       getEnv("COMPOSER_ZONE_OFFSET", "+08:00"),
			SessionStartHour: getEnvInt("COMPOSER_SESSION_START_HOUR", 8),
			SessionEndHour:   getEnvInt("COMPOSER_SESSION_END_HOUR", 23),
			SessionCapacity:  getEnvInt("COMPOSER_SESSION_CAPACITY", 50),
		},
		Queue: QueueConfig{
			RetryBackoffSec: getEnvInt("QUEUE_RETRY_BACKOFF_SEC", 10),
		},
	}
	if _, err := cfg.Composer.Zone(); err != nil {
		return nil, err
	}
	if cfg.Composer.SessionStartHour < 0 || cfg.Composer.SessionEndHour > 23 || cfg.Composer.SessionStartHour >= cfg.Composer.SessionEndHour {
		return nil, fmt.Errorf("session hours %d-%d out of range", cfg.Composer.SessionStartHour, cfg.Composer.SessionEndHour)
	}
	return cfg, nil
}

// SplitOrigins splits a comma-separated origin list.
func SplitOrigins(s string) []string {
	return splitTrim(s, ",")
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
