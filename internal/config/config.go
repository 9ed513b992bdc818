// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. A .env file in the working directory is loaded first when
// present. Sensible defaults are provided for development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8000).
	Port int

	// BaseURL is the public-facing URL used for absolute pagination links.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// MediaURL is the public prefix under which stored images are served.
	MediaURL string

	// CORSOrigins lists origins allowed to call the API from a browser.
	// "*" allows any origin.
	CORSOrigins []string

	// TrustedProxies lists CIDRs whose X-Forwarded-For headers are honored.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Cache holds response cache settings.
	Cache CacheConfig

	// Admin holds credentials for the admin surface.
	Admin AdminConfig

	// Scrape holds outbound fetch settings for the scrape helper and the
	// rating ingestion run.
	Scrape ScrapeConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	// RedisURL selects the Redis-backed store. Empty means in-process memory.
	RedisURL string

	// TTL is how long cached list responses live (default: 2h).
	TTL time.Duration

	// ClearPublic exposes GET /clear/ without admin credentials.
	ClearPublic bool
}

// AdminConfig holds the basic-auth credentials for admin routes.
type AdminConfig struct {
	User string

	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string
}

// ScrapeConfig holds settings for outbound page fetches.
type ScrapeConfig struct {
	Timeout   time.Duration
	UserAgent string

	// TrustpilotBaseURL is the prefix review pages are derived from.
	TrustpilotBaseURL string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8000),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8000"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),
		MediaURL: getEnv("MEDIA_URL", "/media/"),

		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{
			"127.0.0.0/8",
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
			"fd00::/8",
		}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "catalog"),
			Password:        getEnv("DB_PASSWORD", "catalog"),
			Name:            getEnv("DB_NAME", "catalog"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
			AutoMigrate:     getEnvBool("AUTO_MIGRATE", true),
		},

		Cache: CacheConfig{
			RedisURL:    getEnv("REDIS_URL", ""),
			TTL:         getEnvDuration("CACHE_TTL", 2*time.Hour),
			ClearPublic: getEnvBool("CACHE_CLEAR_PUBLIC", false),
		},

		Admin: AdminConfig{
			User:         getEnv("ADMIN_USER", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},

		Scrape: ScrapeConfig{
			Timeout:           getEnvDuration("SCRAPE_TIMEOUT", 10*time.Second),
			UserAgent:         getEnv("SCRAPE_USER_AGENT", "hainu-catalog/1.0"),
			TrustpilotBaseURL: getEnv("TRUSTPILOT_BASE_URL", "https://www.trustpilot.com/review/"),
		},
	}

	if cfg.IsProduction() && cfg.Admin.PasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required in production")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" and its common variants.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvList splits a comma-separated env var, dropping empty entries.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvBool accepts anything strconv.ParseBool understands.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "2h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
