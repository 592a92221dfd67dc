// Package config handles configuration loading for the case service.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database engines.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the case service.
type Config struct {
	DBDriver         string
	DatabaseURL      string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBTimezone       string
	DBAutoMigrate    bool
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	JWTSecret        string
	JWTExpiry        time.Duration
	Port             string
	Environment      string
	AllowedOrigins   []string
	Cookie           CookieConfig
	CapabilitiesFile string
	LogLevel         string
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// Load reads configuration from the environment, after loading a .env file
// when one is present. All missing required keys are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := &Config{
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		DBTimezone:       getEnv("DB_TIMEZONE", "America/Sao_Paulo"),
		DBAutoMigrate:    parseBool(os.Getenv("DB_AUTO_MIGRATE"), false),
		RedisHost:        required("REDIS_HOST"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		JWTSecret:        required("JWT_SECRET"),
		JWTExpiry:        parseDuration(getEnv("JWT_EXPIRY", "8h"), 8*time.Hour),
		Port:             getEnv("PORT", "3001"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CapabilitiesFile: os.Getenv("CAPABILITIES_FILE"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Cookie: CookieConfig{
			Path:     "/",
			Domain:   os.Getenv("COOKIE_DOMAIN"),
			Secure:   parseBool(os.Getenv("COOKIE_SECURE"), false),
			SameSite: http.SameSiteLaxMode,
		},
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverMySQL:
		if cfg.DatabaseURL == "" {
			cfg.DBHost = required("DB_HOST")
			cfg.DBUser = required("DB_USER")
			cfg.DBName = required("DB_NAME")
			cfg.DBPassword = os.Getenv("DB_PASSWORD")
			cfg.DBPort = getEnv("DB_PORT", defaultPort(cfg.DBDriver))
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DBName = getEnv("DB_NAME", "conselho.db")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 bytes")
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultPort(driver string) string {
	if driver == DriverMySQL {
		return "3306"
	}
	return "5432"
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func parseBool(value string, defaultValue bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
