package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service and the dashboard client.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Dashboard    DashboardConfig
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
	Addr            string
	Password        string
	DB              int
	TeamCacheTTLSec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level      string
	Encoding   string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds the outbound webhook for update events.
type NotificationConfig struct {
	WebhookURL            string
	WebhookTimeoutSeconds int
}

// DashboardConfig configures the dashboard client and its feed controller.
type DashboardConfig struct {
	APIBaseURL          string
	TokenPath           string
	Timezone            string
	FetchTimeoutSeconds int
	InteractiveAttempts int
	BackgroundAttempts  int
	RetryBaseDelayMs    int
	RefreshIntervalSec  int
	RefreshPollSec      int
	CacheDriver         string
	CachePath           string
	CacheChunkSize      int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "daily-status-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			TeamCacheTTLSec: getEnvAsInt("REDIS_TEAM_CACHE_TTL_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Encoding:   getEnv("LOG_ENCODING", "json"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 14),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			WebhookURL:            getEnv("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeoutSeconds: getEnvAsInt("NOTIFY_WEBHOOK_TIMEOUT_SECONDS", 5),
		},
		Dashboard: DashboardConfig{
			APIBaseURL:          getEnv("DASHBOARD_API_URL", "http://127.0.0.1:8080"),
			TokenPath:           getEnv("DASHBOARD_TOKEN_PATH", defaultStatePath("token")),
			Timezone:            getEnv("DASHBOARD_TIMEZONE", "Local"),
			FetchTimeoutSeconds: getEnvAsInt("DASHBOARD_FETCH_TIMEOUT_SECONDS", 15),
			InteractiveAttempts: getEnvAsInt("DASHBOARD_INTERACTIVE_ATTEMPTS", 3),
			BackgroundAttempts:  getEnvAsInt("DASHBOARD_BACKGROUND_ATTEMPTS", 2),
			RetryBaseDelayMs:    getEnvAsInt("DASHBOARD_RETRY_BASE_DELAY_MS", 1000),
			RefreshIntervalSec:  getEnvAsInt("DASHBOARD_REFRESH_INTERVAL_SECONDS", 300),
			RefreshPollSec:      getEnvAsInt("DASHBOARD_REFRESH_POLL_SECONDS", 30),
			CacheDriver:         getEnv("DASHBOARD_CACHE_DRIVER", "sqlite"),
			CachePath:           getEnv("DASHBOARD_CACHE_PATH", defaultStatePath("cache.db")),
			CacheChunkSize:      getEnvAsInt("DASHBOARD_CACHE_CHUNK_SIZE", 50),
		},
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

// TeamCacheTTL returns how long manager team lists stay cached.
func (r RedisConfig) TeamCacheTTL() time.Duration {
	if r.TeamCacheTTLSec <= 0 {
		return 0
	}
	return time.Duration(r.TeamCacheTTLSec) * time.Second
}

// WebhookTimeout bounds a single webhook delivery.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	if n.WebhookTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}

// FetchTimeout is the UI-level patience window for one fetch.
func (d DashboardConfig) FetchTimeout() time.Duration {
	return secondsOr(d.FetchTimeoutSeconds, 15)
}

// RetryBaseDelay is the linear backoff unit between fetch attempts.
func (d DashboardConfig) RetryBaseDelay() time.Duration {
	if d.RetryBaseDelayMs <= 0 {
		return time.Second
	}
	return time.Duration(d.RetryBaseDelayMs) * time.Millisecond
}

// RefreshInterval is the minimum spacing of silent refreshes.
func (d DashboardConfig) RefreshInterval() time.Duration {
	return secondsOr(d.RefreshIntervalSec, 300)
}

// RefreshPoll is the tick on which the refresh gate is evaluated.
func (d DashboardConfig) RefreshPoll() time.Duration {
	return secondsOr(d.RefreshPollSec, 30)
}

// Location resolves the dashboard timezone, falling back to time.Local.
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dailyctl", name)
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
