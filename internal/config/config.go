package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DevJWTSecret is only accepted in local environments.
	DevJWTSecret = "storefront-dev-secret-do-not-use-in-production"

	minProductionSecretLen = 32
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET (or NEXTAUTH_SECRET) must be set unless APP_ENV names a local environment")
	ErrWeakJWTSecret    = errors.New("JWT_SECRET must be at least 32 bytes in production")
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	StaticDir             string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	RevocationPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret          string
	UsingDevSecret     bool
	AdminEmail         string
	AdminPassword      string
	AdminSessionTTL    time.Duration
	CustomerSessionTTL time.Duration
	BcryptCost         int
	LegacyCookieUntil  time.Time
	SecureCookies      bool
}

// AdminConfigured reports whether the seeded admin credential pair is present.
func (a AuthConfig) AdminConfigured() bool {
	return a.AdminEmail != "" && a.AdminPassword != ""
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	legacyUntil, err := time.Parse(time.RFC3339, getEnv("AUTH_LEGACY_COOKIE_UNTIL", "2027-01-01T00:00:00Z"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_LEGACY_COOKIE_UNTIL: %w", err)
	}

	declaredEnv := strings.ToLower(getEnv("APP_ENV", os.Getenv("NODE_ENV")))
	env := declaredEnv
	if env == "" {
		env = "development"
	}

	// The dev secret needs an explicitly local environment; an unset one does not count.
	secret := getEnv("JWT_SECRET", os.Getenv("NEXTAUTH_SECRET"))
	usingDev := false
	if secret == "" && IsLocalEnv(declaredEnv) {
		secret = DevJWTSecret
		usingDev = true
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront-auth"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			StaticDir:             getEnv("STATIC_DIR", "./public"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:         os.Getenv("REDIS_PASSWORD"),
			DB:               redisDB,
			RevocationPrefix: getEnv("REDIS_REVOCATION_PREFIX", "auth:revoked:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          secret,
			UsingDevSecret:     usingDev,
			AdminEmail:         os.Getenv("ADMIN_EMAIL"),
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			AdminSessionTTL:    time.Duration(getEnvAsInt("AUTH_ADMIN_SESSION_HOURS", 24)) * time.Hour,
			CustomerSessionTTL: time.Duration(getEnvAsInt("AUTH_CUSTOMER_SESSION_DAYS", 7)) * 24 * time.Hour,
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LegacyCookieUntil:  legacyUntil,
			SecureCookies:      env == "production",
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.App.Env == "production" && len(c.Auth.JWTSecret) < minProductionSecretLen {
		return ErrWeakJWTSecret
	}
	if c.Auth.AdminSessionTTL <= 0 {
		return fmt.Errorf("AUTH_ADMIN_SESSION_HOURS must be positive")
	}
	if c.Auth.CustomerSessionTTL <= 0 {
		return fmt.Errorf("AUTH_CUSTOMER_SESSION_DAYS must be positive")
	}
	return nil
}

// IsLocalEnv reports whether env names a developer or test environment.
func IsLocalEnv(env string) bool {
	switch env {
	case "development", "local", "test":
		return true
	}
	return false
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
