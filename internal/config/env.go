package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	APIBaseURL string
	APITimeout time.Duration

	StorageDriver string
	StorageDSN    string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads .env when present, then the process environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	driver := strings.ToLower(getenv("STORAGE_DRIVER", "sqlite3"))
	dsn := strings.TrimSpace(os.Getenv("STORAGE_DSN"))
	if dsn == "" && driver == "sqlite3" {
		dsn = getenv("SQLITE_PATH", "./data/dashboard.db") + "?_busy_timeout=5000"
	}

	return Env{
		AppAddr:            appAddr,
		GinMode:            strings.TrimSpace(os.Getenv("GIN_MODE")),
		APIBaseURL:         strings.TrimRight(getenv("API_BASE_URL", "http://localhost:4000/api"), "/"),
		APITimeout:         getDuration("API_TIMEOUT", 0),
		StorageDriver:      driver,
		StorageDSN:         dsn,
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", defaultOrigins),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "console"),
	}
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

// getDuration returns fallback when the value is missing or unparseable.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
