// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Addr         string
	BasePath     string
	DataPath     string
	ManifestPath string
	LogLevel     string
	CacheTTL     time.Duration

	WorldBankURL string
	GeminiAPIKey string
	GeminiModel  string
	EChartsCDN   string

	ChatDBPath string // empty keeps sessions in memory
	ChatTTL    time.Duration
}

// Load reads .env files (when present) and then environment variables.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Addr:         getEnv("MOZDADOS_ADDR", ":8080"),
		BasePath:     getEnv("MOZDADOS_BASE_PATH", "/mozdados"),
		DataPath:     getEnv("MOZDADOS_DATA", "dados/database.xlsx"),
		ManifestPath: getEnv("MOZDADOS_MANIFEST", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CacheTTL:     getEnvDuration("MOZDADOS_CACHE_TTL", time.Hour),
		WorldBankURL: getEnv("WORLDBANK_API_URL", "https://api.worldbank.org/v2"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		EChartsCDN:   getEnv("MOZDADOS_ECHARTS_CDN", ""),
		ChatDBPath:   getEnv("MOZDADOS_CHAT_DB", ""),
		ChatTTL:      getEnvDuration("MOZDADOS_CHAT_TTL", 24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("MOZDADOS_ADDR cannot be empty")
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("MOZDADOS_BASE_PATH must start with /")
	}
	if c.DataPath == "" {
		return fmt.Errorf("MOZDADOS_DATA cannot be empty")
	}
	if c.WorldBankURL == "" {
		return fmt.Errorf("WORLDBANK_API_URL cannot be empty")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("MOZDADOS_CACHE_TTL must not be negative")
	}
	if c.ChatTTL < 0 {
		return fmt.Errorf("MOZDADOS_CHAT_TTL must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", raw)
	}
}

// NewLogger builds the JSON logger used by the binaries.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
