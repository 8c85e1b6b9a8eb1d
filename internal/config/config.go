package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	SMS       SMSConfig
	Scheduler SchedulerConfig
	Gateway   GatewayConfig
	Retention RetentionConfig
	Analytics AnalyticsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SMSConfig selects the delivery provider and carries its credentials.
type SMSConfig struct {
	UseMock    bool
	AccountSID string
	AuthToken  string
	FromNumber string
}

// SchedulerConfig controls the daily dispatch cycle.
type SchedulerConfig struct {
	SendHour   int
	SendMinute int
	PoolSize   int
}

// GatewayConfig bounds delivery retries and inbound dedup.
type GatewayConfig struct {
	MaxAttempts    int
	BackoffBaseMS  int
	DedupWindowHrs int
}

// RetentionConfig defines the sweep policy for stale data.
type RetentionConfig struct {
	PendingExpiryDays  int
	DeliveryRecordDays int
}

// AnalyticsConfig shapes the personal analytics links sent by SMS.
type AnalyticsConfig struct {
	BaseURL        string
	TokenSecret    string
	LinkTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "wellbeing-survey-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SMS: SMSConfig{
			UseMock:    getEnvAsBool("USE_MOCK_SMS", true),
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		},
		Scheduler: SchedulerConfig{
			SendHour:   getEnvAsInt("SCHEDULER_SEND_HOUR", 9),
			SendMinute: getEnvAsInt("SCHEDULER_SEND_MINUTE", 0),
			PoolSize:   getEnvAsInt("SCHEDULER_POOL_SIZE", 4),
		},
		Gateway: GatewayConfig{
			MaxAttempts:    getEnvAsInt("GATEWAY_MAX_ATTEMPTS", 3),
			BackoffBaseMS:  getEnvAsInt("GATEWAY_BACKOFF_BASE_MS", 200),
			DedupWindowHrs: getEnvAsInt("GATEWAY_DEDUP_WINDOW_HOURS", 72),
		},
		Retention: RetentionConfig{
			PendingExpiryDays:  getEnvAsInt("RETENTION_PENDING_EXPIRY_DAYS", 7),
			DeliveryRecordDays: getEnvAsInt("RETENTION_DELIVERY_RECORD_DAYS", 90),
		},
		Analytics: AnalyticsConfig{
			BaseURL:        getEnv("ANALYTICS_BASE_URL", "http://localhost:8080"),
			TokenSecret:    getEnv("ANALYTICS_TOKEN_SECRET", "dev-secret"),
			LinkTTLMinutes: getEnvAsInt("ANALYTICS_LINK_TTL_MINUTES", 10080),
		},
	}

	if !cfg.SMS.UseMock {
		if cfg.SMS.AccountSID == "" || cfg.SMS.AuthToken == "" || cfg.SMS.FromNumber == "" {
			return nil, fmt.Errorf("live SMS selected but Twilio credentials are incomplete")
		}
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Backoff returns the base delay between delivery retries.
func (g GatewayConfig) Backoff() time.Duration {
	if g.BackoffBaseMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(g.BackoffBaseMS) * time.Millisecond
}

// DedupWindow returns how long processed provider message ids are remembered.
func (g GatewayConfig) DedupWindow() time.Duration {
	if g.DedupWindowHrs <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(g.DedupWindowHrs) * time.Hour
}

// LinkTTL returns the validity window for signed analytics links.
func (a AnalyticsConfig) LinkTTL() time.Duration {
	if a.LinkTTLMinutes <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.LinkTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
