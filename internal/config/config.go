package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode is the process execution mode.
type Mode string

const (
	ModeTest        Mode = "test"
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// BuildLocal is the build variant that forbids remote browser sessions.
const BuildLocal = "build-local"

// Config holds all process-level configuration.
type Config struct {
	Mode    Mode
	Port    int
	Browser BrowserConfig
	HTTP    HTTPConfig
	Store   StoreConfig
	// SourcesFile overrides the embedded scraping catalogue when set.
	SourcesFile string
	LogLevel    slog.Level
}

type BrowserConfig struct {
	// Remote browser WebSocket endpoint (e.g. a browserless instance)
	RemoteURL    string
	BuildVariant string
	ChromiumPath string
	// Navigation timeout applied to every page
	NavigationTimeout time.Duration
	ShowUI            bool
}

type HTTPConfig struct {
	// Allowed CORS origin
	HostName string
	// Bearer token required under /api; empty disables the check
	AuthToken string
}

type StoreConfig struct {
	// SQLite file path or postgres:// connection string
	DatabaseURL string
}

// Load creates a Config from environment variables with defaults
func Load() *Config {
	return &Config{
		Mode: parseMode(getEnv("APP_ENV", string(ModeProduction))),
		Port: getEnvInt("PORT", 5000),
		Browser: BrowserConfig{
			RemoteURL:         getEnv("BROWSERLESS_URL", ""),
			BuildVariant:      getEnv("BUILD_ENV", ""),
			ChromiumPath:      getEnv("CHROMIUM_PATH", "/usr/bin/chromium"),
			NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 2*time.Minute),
		},
		HTTP: HTTPConfig{
			HostName:  getEnv("HOST_NAME", "*"),
			AuthToken: getEnv("AUTH_TOKEN", ""),
		},
		Store: StoreConfig{
			DatabaseURL: getEnv("DATABASE_URL", "mangascraper.db"),
		},
		SourcesFile: getEnv("SOURCES_FILE", ""),
		LogLevel:    parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func parseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTest:
		return ModeTest
	case ModeDevelopment:
		return ModeDevelopment
	default:
		return ModeProduction
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
