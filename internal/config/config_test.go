package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DatabaseDriver:         DatabaseDriverSQLite,
		DatabaseDSN:            ":memory:",
		AccessTokenExpiration:  10 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		AuthCodeExpiration:     5 * time.Minute,
		DeviceCodeExpiration:   5 * time.Minute,
		DevicePollInterval:     5 * time.Second,
		SessionTokenExpiration: 5 * time.Minute,
		SessionDuration:        24 * time.Hour,
		KeyRotationDuration:    24 * time.Hour,
		KeyTransitionDuration:  time.Hour,
		ClientCacheType:        CacheTypeMemory,
		RateLimitStore:         RateLimitStoreMemory,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name: "valid redis stores",
			mutate: func(c *Config) {
				c.ClientCacheType = CacheTypeRedis
				c.RateLimitStore = RateLimitStoreRedis
			},
		},
		{
			name: "transition equal to rotation",
			mutate: func(c *Config) {
				c.KeyTransitionDuration = c.KeyRotationDuration
			},
			expectError: true,
			errorMsg:    ErrInvalidKeyWindow.Error(),
		},
		{
			name: "transition longer than rotation",
			mutate: func(c *Config) {
				c.KeyRotationDuration = time.Hour
				c.KeyTransitionDuration = 2 * time.Hour
			},
			expectError: true,
			errorMsg:    ErrInvalidKeyWindow.Error(),
		},
		{
			name: "device code lifetime too short",
			mutate: func(c *Config) {
				c.DeviceCodeExpiration = time.Minute
			},
			expectError: true,
			errorMsg:    ErrInvalidDeviceLifetime.Error(),
		},
		{
			name: "device code lifetime too long",
			mutate: func(c *Config) {
				c.DeviceCodeExpiration = 30 * time.Minute
			},
			expectError: true,
			errorMsg:    ErrInvalidDeviceLifetime.Error(),
		},
		{
			name: "invalid rate limit store",
			mutate: func(c *Config) {
				c.RateLimitStore = "reddis"
			},
			expectError: true,
			errorMsg:    `invalid RATE_LIMIT_STORE value: "reddis"`,
		},
		{
			name: "invalid client cache type",
			mutate: func(c *Config) {
				c.ClientCacheType = "MEMORY"
			},
			expectError: true,
			errorMsg:    `invalid CLIENT_CACHE_TYPE value: "MEMORY"`,
		},
		{
			name: "invalid database driver",
			mutate: func(c *Config) {
				c.DatabaseDriver = "mysql"
			},
			expectError: true,
			errorMsg:    `invalid DATABASE_DRIVER value: "mysql"`,
		},
		{
			name: "missing dsn",
			mutate: func(c *Config) {
				c.DatabaseDSN = ""
			},
			expectError: true,
			errorMsg:    "DATABASE_DSN is required",
		},
		{
			name: "zero session duration",
			mutate: func(c *Config) {
				c.SessionDuration = 0
			},
			expectError: true,
			errorMsg:    "SESSION_DURATION must be positive, got 0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.errorMsg, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ACCESS_TOKEN_EXPIRATION",
		"REFRESH_TOKEN_EXPIRATION",
		"AUTH_CODE_EXPIRATION",
		"DEVICE_CODE_EXPIRATION",
		"KEY_ROTATION_DURATION",
		"KEY_TRANSITION_DURATION",
		"DATABASE_DRIVER",
		"DEFAULT_SCOPES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenExpiration)
	assert.Equal(t, 5*time.Minute, cfg.AuthCodeExpiration)
	assert.Equal(t, 5*time.Minute, cfg.DeviceCodeExpiration)
	assert.Equal(t, DatabaseDriverSQLite, cfg.DatabaseDriver)
	assert.Contains(t, cfg.DefaultScopes, "openid")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "15m")
	t.Setenv("DEVICE_POLL_INTERVAL", "10s")
	t.Setenv("DEFAULT_SCOPES", " read , write ,,admin ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ENABLE_RATE_LIMIT", "false")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 10*time.Second, cfg.DevicePollInterval)
	assert.Equal(t, []string{"read", "write", "admin"}, cfg.DefaultScopes)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.EnableRateLimit)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "ten minutes")
	t.Setenv("REDIS_DB", "abc")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 0, cfg.RedisDB)
}
