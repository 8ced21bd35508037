package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Auth Configuration
	Auth AuthConfig

	// Maintenance Configuration
	Maintenance MaintenanceConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds HTTP listener configuration
type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string // sqlite file path, or postgres:// URL
}

// Driver names the database driver selected by URL: "postgres" for
// postgres:// and postgresql:// URLs, "sqlite" otherwise.
func (d DatabaseConfig) Driver() string {
	if strings.HasPrefix(d.URL, "postgres://") || strings.HasPrefix(d.URL, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// AuthConfig holds token and account configuration
type AuthConfig struct {
	TokenTTL          time.Duration
	RevocationBackend string   // "db" or "redis"
	AdminUsernames    []string // usernames granted admin on signup
}

// MaintenanceConfig holds background job configuration
type MaintenanceConfig struct {
	Schedule       string        // cron expression
	AuditRetention time.Duration // 0 keeps audit logs forever
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	tokenTTL, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	retention, err := durationEnv("AUDIT_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTP: HTTPConfig{
			Port:        stringEnv("PORT", "8080"),
			CORSOrigins: listEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "jobtrack.sqlite"),
		},
		Redis: RedisConfig{
			Address: stringEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Auth: AuthConfig{
			TokenTTL:          tokenTTL,
			RevocationBackend: strings.ToLower(stringEnv("REVOCATION_BACKEND", "db")),
			AdminUsernames:    listEnv("ADMIN_USERNAMES", nil),
		},
		Maintenance: MaintenanceConfig{
			Schedule:       stringEnv("MAINTENANCE_SCHEDULE", "*/15 * * * *"),
			AuditRetention: retention,
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
