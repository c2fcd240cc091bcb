package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
	SessionBackendMemory   = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret          string
	TokenTTLMinutes    int
	TokenLeewaySeconds int
	BcryptCost         int
	CookieName         string
}

// SessionConfig selects and tunes the token allow-list.
type SessionConfig struct {
	Backend              string
	PruneIntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	appName := getEnv("APP_NAME", "todo-auth")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			ApplicationName: appName,
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 3),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes:    getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 24*60),
			TokenLeewaySeconds: getEnvAsInt("AUTH_TOKEN_LEEWAY_SECONDS", 0),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 10),
			CookieName:         getEnv("AUTH_COOKIE_NAME", "token"),
		},
		Session: SessionConfig{
			Backend:              strings.ToLower(os.Getenv("SESSION_BACKEND")),
			PruneIntervalMinutes: getEnvAsInt("SESSION_PRUNE_INTERVAL_MINUTES", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "", SessionBackendPostgres, SessionBackendRedis, SessionBackendMemory:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.Backend == SessionBackendPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("SESSION_BACKEND=postgres requires POSTGRES_DSN")
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == "dev-secret" {
		return fmt.Errorf("AUTH_JWT_SECRET must be set outside development")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs outside development.
func (a AppConfig) IsProduction() bool {
	return a.Env != "development" && a.Env != "test"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// TokenLeeway returns the clock-skew grace window applied on verification.
func (a AuthConfig) TokenLeeway() time.Duration {
	if a.TokenLeewaySeconds <= 0 {
		return 0
	}
	return time.Duration(a.TokenLeewaySeconds) * time.Second
}

// ResolveBackend picks the session backend, defaulting to postgres when a DSN is present.
func (s SessionConfig) ResolveBackend(pg PostgresConfig) string {
	if s.Backend != "" {
		return s.Backend
	}
	if pg.DSN != "" {
		return SessionBackendPostgres
	}
	return SessionBackendMemory
}

// PruneInterval returns the sweep period; zero disables the sweeper.
func (s SessionConfig) PruneInterval() time.Duration {
	if s.PruneIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.PruneIntervalMinutes) * time.Minute
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
