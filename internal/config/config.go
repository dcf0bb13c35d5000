package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

// Cache type constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

var (
	ErrInvalidKeyWindow      = errors.New("KEY_TRANSITION_DURATION must be shorter than KEY_ROTATION_DURATION")
	ErrInvalidDeviceLifetime = errors.New("DEVICE_CODE_EXPIRATION must be between 5m and 10m")
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string
	LogLevel    string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnLifetime time.Duration
	DBInitTimeout  time.Duration
	DBConnectTries int
	DefaultScopes  []string
	SeedAdminUser  bool
	AdminUsername  string
	AdminPassword  string // generated when empty
	SweepInterval  time.Duration

	// Redis (sessions, client cache, rate limiting)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration
	RedisKeyPrefix   string

	// Credential lifetimes
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	AuthCodeExpiration     time.Duration
	DeviceCodeExpiration   time.Duration
	DevicePollInterval     time.Duration
	DeviceVerificationPath string

	// Sessions
	SessionTokenExpiration time.Duration
	SessionDuration        time.Duration
	SecureCookies          bool

	// Signing keys
	KeyRotationDuration   time.Duration
	KeyTransitionDuration time.Duration

	// Client cache
	ClientCacheType string // "memory" or "redis"
	ClientCacheTTL  time.Duration

	// Audit
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration // 0 keeps logs forever

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateInterval time.Duration

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	LoginRateLimit           int // requests per minute
	TokenRateLimit           int
	DeviceCodeRateLimit      int
	SessionRateLimit         int
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "lockrs.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		Environment: environment,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBConnectTries: getEnvInt("DB_CONNECT_TRIES", 5),
		DefaultScopes: getEnvSlice(
			"DEFAULT_SCOPES",
			[]string{"openid", "profile", "email", "read", "write", "offline_access"},
		),
		SeedAdminUser: getEnvBool("SEED_ADMIN_USER", true),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		SweepInterval: getEnvDuration("EXPIRED_SWEEP_INTERVAL", 15*time.Minute),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisKeyPrefix:   getEnv("REDIS_KEY_PREFIX", "lockrs:"),

		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", 10*time.Minute),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 24*time.Hour),
		AuthCodeExpiration:     getEnvDuration("AUTH_CODE_EXPIRATION", 5*time.Minute),
		DeviceCodeExpiration:   getEnvDuration("DEVICE_CODE_EXPIRATION", 5*time.Minute),
		DevicePollInterval:     getEnvDuration("DEVICE_POLL_INTERVAL", 5*time.Second),
		DeviceVerificationPath: getEnv("DEVICE_VERIFICATION_PATH", "/device"),

		SessionTokenExpiration: getEnvDuration("SESSION_TOKEN_EXPIRATION", 5*time.Minute),
		SessionDuration:        getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SecureCookies:          getEnvBool("SECURE_COOKIES", environment == "production"),

		KeyRotationDuration:   getEnvDuration("KEY_ROTATION_DURATION", 24*time.Hour),
		KeyTransitionDuration: getEnvDuration("KEY_TRANSITION_DURATION", time.Hour),

		ClientCacheType: getEnv("CLIENT_CACHE_TYPE", CacheTypeMemory),
		ClientCacheTTL:  getEnvDuration("CLIENT_CACHE_TTL", time.Minute),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 5),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 60),
		DeviceCodeRateLimit:      getEnvInt("DEVICE_CODE_RATE_LIMIT", 10),
		SessionRateLimit:         getEnvInt("SESSION_RATE_LIMIT", 20),
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks invariants that cannot be expressed with defaults alone.
func (c *Config) Validate() error {
	if c.KeyTransitionDuration >= c.KeyRotationDuration {
		return ErrInvalidKeyWindow
	}
	if c.DeviceCodeExpiration < 5*time.Minute || c.DeviceCodeExpiration > 10*time.Minute {
		return ErrInvalidDeviceLifetime
	}
	if c.DevicePollInterval <= 0 {
		return fmt.Errorf("DEVICE_POLL_INTERVAL must be positive, got %s", c.DevicePollInterval)
	}
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	switch c.ClientCacheType {
	case CacheTypeMemory, CacheTypeRedis:
	default:
		return fmt.Errorf("invalid CLIENT_CACHE_TYPE value: %q", c.ClientCacheType)
	}
	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE value: %q", c.RateLimitStore)
	}
	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_EXPIRATION":  c.AccessTokenExpiration,
		"REFRESH_TOKEN_EXPIRATION": c.RefreshTokenExpiration,
		"AUTH_CODE_EXPIRATION":     c.AuthCodeExpiration,
		"SESSION_TOKEN_EXPIRATION": c.SessionTokenExpiration,
		"SESSION_DURATION":         c.SessionDuration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
