package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	StoreDriver string // postgres, bolt or memory
	BoltPath    string

	HTTPAddr    string
	FrontendURL string
	JWTSecret   string
	DevAuth     bool

	LogLevel    string
	Environment string

	CronSpecSync       string
	SyncWorkers        int
	SyncRequestTimeout time.Duration
	SyncTimeout        time.Duration
	SyncCourseStates   []string // empty syncs courses in every state
	DueDateLocation    *time.Location

	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccessToken  string
	GoogleRefreshToken string

	TelegramToken        string
	TelegramReportChatID int64
	TelegramAdminID      int64
}

// Load reads configuration from environment variables and .env file (if present).
// Settings only some commands need (JWT secret, Google credentials, Telegram)
// are validated by those commands.
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", "postgres"))
	switch cfg.StoreDriver {
	case "postgres", "bolt", "memory":
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.BoltPath = getEnv("BOLT_PATH", "classroom_sync.db")

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":4000")
	cfg.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.DevAuth, err = getBool("DEV_AUTH", false); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.CronSpecSync = getEnv("CRON_SPEC_SYNC", "0 */6 * * *") // Default: every 6 hours
	cfg.SyncWorkers, err = strconv.Atoi(getEnv("SYNC_WORKERS", "4"))
	if err != nil || cfg.SyncWorkers < 1 {
		return nil, fmt.Errorf("invalid SYNC_WORKERS: must be a positive integer")
	}
	if cfg.SyncRequestTimeout, err = getDuration("SYNC_REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncTimeout, err = getDuration("SYNC_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SyncCourseStates, err = getCourseStates("SYNC_COURSE_STATES"); err != nil {
		return nil, err
	}
	cfg.DueDateLocation, err = time.LoadLocation(getEnv("DUE_DATE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid DUE_DATE_TIMEZONE: %w", err)
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleAccessToken = os.Getenv("GOOGLE_ACCESS_TOKEN")
	cfg.GoogleRefreshToken = os.Getenv("GOOGLE_REFRESH_TOKEN")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramReportChatID, err = getInt64("TELEGRAM_REPORT_CHAT_ID"); err != nil {
		return nil, err
	}
	if cfg.TelegramAdminID, err = getInt64("TELEGRAM_ADMIN_ID"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func getInt64(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

var courseStates = map[string]bool{
	"ACTIVE":      true,
	"ARCHIVED":    true,
	"PROVISIONED": true,
	"DECLINED":    true,
	"SUSPENDED":   true,
}

// getCourseStates parses a comma separated list such as "ACTIVE,ARCHIVED".
func getCourseStates(key string) ([]string, error) {
	var states []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		state := strings.ToUpper(strings.TrimSpace(part))
		if state == "" {
			continue
		}
		if !courseStates[state] {
			return nil, fmt.Errorf("invalid %s: unknown course state %q", key, state)
		}
		states = append(states, state)
	}
	return states, nil
}
