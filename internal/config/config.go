// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxTagGroups is the upper bound for the configurable tag group count.
const MaxTagGroups = 9

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	// BasePath holds catalog.db, the profile store and cover images.
	BasePath string
}

// DatabasePath returns the SQLite database file path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "catalog.db")
}

// ProfilesPath returns the Badger directory for profile attributes.
func (d DataConfig) ProfilesPath() string {
	return filepath.Join(d.BasePath, "profiles")
}

// CoversPath returns the cover image directory.
func (d DataConfig) CoversPath() string {
	return filepath.Join(d.BasePath, "covers")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	PublicURL    string        // Base URL used when building cover links
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
}

// CatalogConfig holds catalog behaviour settings.
type CatalogConfig struct {
	// TagGroups is the number of tag groups per entry (1..MaxTagGroups).
	TagGroups int
	// PrimaryPublication is excluded from aggregation in addition to
	// publications flagged primary in the directory.
	PrimaryPublication string
}

// CacheConfig selects the aggregate cache backend.
type CacheConfig struct {
	Backend string // memory or ristretto
	MaxCost int64
}

// RateLimitConfig holds per-client request limits for the HTTP API.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("catalog-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for catalog data")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL for cover links")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-allowed-origins", "", "Comma-separated CORS origins")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")

	// Catalog flags
	tagGroups := fs.String("tag-groups", "", "Number of tag groups per catalog entry (default: 2)")
	primaryPublication := fs.String("primary-publication", "", "Publication excluded from aggregation")

	// Cache flags
	cacheBackend := fs.String("cache-backend", "", "Aggregate cache backend: memory or ristretto")
	cacheMaxCost := fs.String("cache-max-cost", "", "Ristretto max cost (default: 10000)")

	rateLimitRPS := fs.String("rate-limit-rps", "", "Requests per second per client (default: 20)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Request burst per client (default: 40)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PublicURL:   strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", ""), "/"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Catalog: CatalogConfig{
			TagGroups:          getIntConfigValue(*tagGroups, "CATALOG_TAG_GROUPS", 2),
			PrimaryPublication: getConfigValue(*primaryPublication, "CATALOG_PRIMARY_PUBLICATION", ""),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getConfigValue(*cacheBackend, "CACHE_BACKEND", "memory")),
			MaxCost: int64(getIntConfigValue(*cacheMaxCost, "CACHE_MAX_COST", 10000)),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 20),
			Burst: getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 40),
		},
	}

	durations := []struct {
		value  string
		envKey string
		def    string
		target *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.value, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost:" + cfg.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Catalog.TagGroups < 1 || c.Catalog.TagGroups > MaxTagGroups {
		return fmt.Errorf("invalid tag group count: %d (must be 1..%d)", c.Catalog.TagGroups, MaxTagGroups)
	}

	switch c.Cache.Backend {
	case "memory", "ristretto":
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory or ristretto)", c.Cache.Backend)
	}
	if c.Cache.Backend == "ristretto" && c.Cache.MaxCost <= 0 {
		return errors.New("cache max cost must be positive")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults to ~/Shelfwise/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelfwise", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
