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

// Attendance scopes (ATTENDANCE_SCOPE).
const (
	// ScopeDay allows one attendance record per person per day, whatever its origin.
	ScopeDay = "day"
	// ScopeDayEvent keeps event attendance and reason-only records in separate slots.
	ScopeDayEvent = "day_event"
)

// Confirmation policies (CONFIRMATION_POLICY).
const (
	PolicyUpsert = "upsert"
	PolicyAppend = "append"
	PolicyReject = "reject"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Workflow WorkflowConfig
	AWS      AWSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. the Supabase connection string)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TelegramConfig holds bot credentials and webhook settings.
type TelegramConfig struct {
	Token         string
	BaseURL       string // public URL used to register the webhook; empty = long polling
	WebhookPath   string
	WebhookSecret string
}

// WorkflowConfig holds the attendance workflow policies and bounds.
type WorkflowConfig struct {
	Timezone           string
	AttendanceScope    string
	ConfirmationPolicy string
	StoreTimeoutSec    int
	TurnTimeoutSec     int
	LockTTLSec         int
}

// AWSConfig holds AWS credentials and the bucket for attendance reports.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ReportsBucket        string
	PresignExpireMinutes int
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

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// WebhookURL returns the full webhook URL, or "" in polling mode.
func (c TelegramConfig) WebhookURL() string {
	if c.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.BaseURL, "/") + c.WebhookPath
}

// Location loads the configured time zone.
func (c WorkflowConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// StoreTimeout bounds a single registry/ledger call.
func (c WorkflowConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSec) * time.Second
}

// TurnTimeout bounds the handling of one inbound update.
func (c WorkflowConfig) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSec) * time.Second
}

// LockTTL is the expiry of a per-person lock.
func (c WorkflowConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSec) * time.Second
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			ReadTimeout:  getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout: getEnvInt("WRITE_TIMEOUT_SEC", 30),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "asistencia"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Telegram: TelegramConfig{
			Token:         getEnv("TELEGRAM_TOKEN", ""),
			BaseURL:       getEnv("BASE_URL", ""),
			WebhookPath:   getEnv("WEBHOOK_PATH", "/bot"),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Workflow: WorkflowConfig{
			Timezone:           getEnv("TIMEZONE", "America/Caracas"),
			AttendanceScope:    strings.ToLower(getEnv("ATTENDANCE_SCOPE", ScopeDay)),
			ConfirmationPolicy: strings.ToLower(getEnv("CONFIRMATION_POLICY", PolicyUpsert)),
			StoreTimeoutSec:    getEnvInt("STORE_TIMEOUT_SEC", 5),
			TurnTimeoutSec:     getEnvInt("TURN_TIMEOUT_SEC", 20),
			LockTTLSec:         getEnvInt("LOCK_TTL_SEC", 10),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReportsBucket:        getEnv("AWS_S3_REPORTS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 60),
		},
	}
	if !strings.HasPrefix(cfg.Telegram.WebhookPath, "/") {
		cfg.Telegram.WebhookPath = "/" + cfg.Telegram.WebhookPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the workflow cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Workflow.AttendanceScope {
	case ScopeDay, ScopeDayEvent:
	default:
		errs = append(errs, fmt.Errorf("ATTENDANCE_SCOPE %q: want %s or %s", c.Workflow.AttendanceScope, ScopeDay, ScopeDayEvent))
	}
	switch c.Workflow.ConfirmationPolicy {
	case PolicyUpsert, PolicyAppend, PolicyReject:
	default:
		errs = append(errs, fmt.Errorf("CONFIRMATION_POLICY %q: want %s, %s or %s", c.Workflow.ConfirmationPolicy, PolicyUpsert, PolicyAppend, PolicyReject))
	}
	if _, err := c.Workflow.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.Workflow.StoreTimeoutSec <= 0 || c.Workflow.TurnTimeoutSec <= 0 || c.Workflow.LockTTLSec <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT_SEC, TURN_TIMEOUT_SEC and LOCK_TTL_SEC must be positive"))
	}
	return errors.Join(errs...)
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
