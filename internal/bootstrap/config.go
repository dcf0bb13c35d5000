package bootstrap

import (
	"fmt"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger and installs it as zap's global.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, warning := range productionWarnings(cfg) {
		zap.L().Warn(warning)
	}
	return nil
}

// productionWarnings lists settings that work but are unsafe in production.
func productionWarnings(cfg *config.Config) []string {
	if !cfg.IsProduction() {
		return nil
	}
	var warnings []string
	if !cfg.SecureCookies {
		warnings = append(warnings, "SECURE_COOKIES is off in production")
	}
	if cfg.MetricsEnabled && cfg.MetricsToken == "" {
		warnings = append(warnings, "/metrics is exposed without METRICS_TOKEN")
	}
	if cfg.DatabaseDriver == config.DatabaseDriverSQLite {
		warnings = append(warnings, "sqlite is not suited for multi-instance deployments")
	}
	if cfg.EnableRateLimit && cfg.RateLimitStore == config.RateLimitStoreMemory {
		warnings = append(warnings, "in-memory rate limits are per instance")
	}
	return warnings
}
