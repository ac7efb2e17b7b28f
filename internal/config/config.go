package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// BookingTimezone is the single zone all schedules and slot times are
	// interpreted in.
	BookingTimezone string

	// Sweep cadences. The lapsed-interview sweep runs several times per day,
	// the link sweep daily.
	LapsedSweepInterval  time.Duration
	ExpiredSweepInterval time.Duration

	// Outbox deliverer tuning.
	OutboxBatchSize int
	OutboxInterval  time.Duration

	// Rate limiting for the public token-facing endpoints.
	RateLimitPerMinute int

	// Notification settings. An empty SendGrid key switches email to
	// log-only delivery.
	SendGridAPIKey  string
	NotifyFromEmail string
	NotifyFromName  string
	OpsEmail        string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		BookingTimezone:      getEnv("BOOKING_TIMEZONE", "Europe/London"),
		LapsedSweepInterval:  getEnvAsDuration("LAPSED_SWEEP_INTERVAL", 6*time.Hour),
		ExpiredSweepInterval: getEnvAsDuration("EXPIRED_SWEEP_INTERVAL", 24*time.Hour),
		OutboxBatchSize:      getEnvAsInt("OUTBOX_BATCH_SIZE", 25),
		OutboxInterval:       getEnvAsDuration("OUTBOX_INTERVAL", 2*time.Second),
		RateLimitPerMinute:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		NotifyFromEmail:      getEnv("NOTIFY_FROM_EMAIL", "bookings@recruitflow.app"),
		NotifyFromName:       getEnv("NOTIFY_FROM_NAME", "RecruitFlow Bookings"),
		OpsEmail:             getEnv("OPS_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
