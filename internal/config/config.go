package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	AppURL         string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string

	// Location drives every calendar computation (period windows, "today").
	Location *time.Location

	Cache CacheConfig

	SESRegion    string
	SESFromEmail string

	OAuthRedirectBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string

	RateLimitPerMinute int
}

// CacheConfig configures the read-through cache service.
type CacheConfig struct {
	Backend     string // memory or redis
	TTL         time.Duration
	CheckPeriod time.Duration
	MaxKeys     int
	Prefix      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		AppURL:         getEnv("APP_URL", "http://localhost:8080"),
		DatabaseType:   getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabasePath:   getEnv("DB_PATH", "./carenest.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SESRegion:    getEnv("SES_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),

		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_RPM", 120); err != nil {
		return nil, err
	}

	cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.Cache = CacheConfig{
		Backend:       strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		Prefix:        getEnv("CACHE_PREFIX", "learning_library:"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
	if cfg.Cache.TTL, err = getDuration("CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Cache.CheckPeriod, err = getDuration("CACHE_CHECK_PERIOD", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Cache.MaxKeys, err = getInt("CACHE_MAX_KEYS", 10000); err != nil {
		return nil, err
	}
	if cfg.Cache.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND: %s", c.Cache.Backend)
	}
	if c.Cache.MaxKeys <= 0 {
		return fmt.Errorf("CACHE_MAX_KEYS must be positive")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
