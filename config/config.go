package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Tokens        TokenConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the PostgreSQL user store settings.
// DATABASE_URL, when set, overrides the discrete DB_* fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// RedisConfig holds the optional principal cache settings.
// An empty URL disables the cache.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// TokenConfig holds the signing secrets and lifetimes of both token kinds
type TokenConfig struct {
	AccessSecret           string
	RefreshSecret          string
	AccessLifetimeSeconds  int
	RefreshLifetimeSeconds int
	LookupTimeout          time.Duration
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New loads .env when present, then reads the environment
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	tokens, err := loadTokenConfig()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvAsDuration("PRINCIPAL_CACHE_TTL", 30*time.Second),
		},
		Tokens: tokens,
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate reports the first missing or inconsistent setting
func (c *Config) Validate() error {
	db := c.Database
	if db.ConnectionString == "" {
		if db.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if db.Database == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}

	if err := c.Tokens.Validate(); err != nil {
		return err
	}

	if c.Redis.URL != "" && c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("PRINCIPAL_CACHE_TTL must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("LOG_LEVEL is required")
	}

	return nil
}

// Validate checks the token settings
func (t *TokenConfig) Validate() error {
	if t.AccessSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET_KEY is required")
	}
	if t.RefreshSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET_KEY is required")
	}
	if t.AccessSecret == t.RefreshSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET_KEY and REFRESH_TOKEN_SECRET_KEY must differ")
	}
	if t.AccessLifetimeSeconds <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_SECONDS must be positive")
	}
	if t.RefreshLifetimeSeconds <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_SECONDS must be positive")
	}
	if t.LookupTimeout <= 0 {
		return fmt.Errorf("USER_LOOKUP_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT names production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment reports whether ENVIRONMENT names development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the lib/pq connection string
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString describes the target database without credentials
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<unparseable DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address is the host:port the server listens on
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadDatabaseConfig() DatabaseConfig {
	pool := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		pool.ConnectionString = dbURL
		return pool
	}

	pool.Host = getEnv("DB_HOST", "localhost")
	pool.Port = getEnvAsInt("DB_PORT", 5432)
	pool.User = getEnv("DB_USER", "auth")
	pool.Password = getEnv("DB_PASSWORD", "")
	pool.Database = getEnv("DB_NAME", "account_auth")
	pool.SSLMode = getEnv("DB_SSLMODE", "disable")
	return pool
}

// loadTokenConfig reads the token settings, which have no defaults
func loadTokenConfig() (TokenConfig, error) {
	accessLifetime, err := requireEnvAsInt("ACCESS_TOKEN_EXPIRE_SECONDS")
	if err != nil {
		return TokenConfig{}, err
	}
	refreshLifetime, err := requireEnvAsInt("REFRESH_TOKEN_EXPIRE_SECONDS")
	if err != nil {
		return TokenConfig{}, err
	}

	return TokenConfig{
		AccessSecret:           os.Getenv("ACCESS_TOKEN_SECRET_KEY"),
		RefreshSecret:          os.Getenv("REFRESH_TOKEN_SECRET_KEY"),
		AccessLifetimeSeconds:  accessLifetime,
		RefreshLifetimeSeconds: refreshLifetime,
		LookupTimeout:          getEnvAsDuration("USER_LOOKUP_TIMEOUT", 5*time.Second),
	}, nil
}

// getPort reads PORT, then SERVER_PORT, and falls back to 8000
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if p, ok := lookupParsed(key, strconv.Atoi); ok {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// lookupParsed parses the variable named key. ok is false when it is unset or malformed.
func lookupParsed[T any](key string, parse func(string) (T, error)) (T, bool) {
	var zero T
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return zero, false
	}
	value, err := parse(raw)
	if err != nil {
		return zero, false
	}
	return value, true
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, ok := lookupParsed(key, strconv.Atoi); ok {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := lookupParsed(key, time.ParseDuration); ok {
		return value
	}
	return defaultValue
}

func requireEnvAsInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getEnvAsList(key string, defaultValue []string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
