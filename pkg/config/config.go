package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string
	TrustProxy         bool // honour X-Forwarded-For

	// Redirect engine
	IOSFallbackTimeout time.Duration

	// Analytics recorder
	AnalyticsWorkers      int
	AnalyticsQueueSize    int
	AnalyticsWriteTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:deeplink_qr.db"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:8080/"),
		AllowedEmails:      getList("ALLOWED_EMAILS"),
		TrustProxy:         getBool("TRUST_PROXY", false),

		IOSFallbackTimeout: getMillis("IOS_FALLBACK_TIMEOUT_MS", 2000),

		AnalyticsWorkers:      getInt("ANALYTICS_WORKERS", 4),
		AnalyticsQueueSize:    getInt("ANALYTICS_QUEUE_SIZE", 1024),
		AnalyticsWriteTimeout: getMillis("ANALYTICS_WRITE_TIMEOUT_MS", 3000),
	}
}

// AuthEnabled reports whether Google login is configured. Without it the
// admin API is served unauthenticated.
func (c *Config) AuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getMillis(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Millisecond
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
