package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ core.Transactor                    = (*Store)(nil)
	_ core.ClientRepository              = (*Store)(nil)
	_ core.RedirectURIRepository         = (*Store)(nil)
	_ core.ScopeRepository               = (*Store)(nil)
	_ core.AuthorizationCodeRepository   = (*Store)(nil)
	_ core.DeviceAuthorizationRepository = (*Store)(nil)
	_ core.AccessTokenRepository         = (*Store)(nil)
	_ core.RefreshTokenRepository        = (*Store)(nil)
	_ core.UserRepository                = (*Store)(nil)
	_ core.AuditRepository               = (*Store)(nil)
	_ core.MetricsStore                  = (*Store)(nil)
)

// Store is the relational repository backed by GORM.
type Store struct {
	db *gorm.DB
}

type txKey struct{}

var errNilConfig = errors.New("store: nil config")

// New opens the database, migrates the schema and seeds default data.
func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	configurePool(driver, sqlDB, cfg)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.RedirectURI{},
		&models.Scope{},
		&models.AuthorizationCode{},
		&models.DeviceAuthorization{},
		&models.AccessToken{},
		&models.RefreshToken{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	store := &Store{db: db}

	if err := store.seedData(ctx, cfg); err != nil {
		zap.L().Warn("failed to seed data", zap.Error(err))
	}

	return store, nil
}

func (s *Store) seedData(ctx context.Context, cfg *config.Config) error {
	for _, name := range cfg.DefaultScopes {
		scope := &models.Scope{Name: name}
		err := s.db.WithContext(ctx).
			Where(models.Scope{Name: name}).
			FirstOrCreate(scope).Error
		if err != nil {
			return err
		}
	}

	if !cfg.SeedAdminUser {
		return nil
	}

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		var err error
		if password, err = util.RandomHex(16); err != nil {
			return err
		}
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Username: cfg.AdminUsername,
		Email:    cfg.AdminUsername + "@localhost",
		Role:     "admin",
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	if generated {
		zap.L().Info("created default admin user",
			zap.String("username", user.Username),
			zap.String("password", password),
		)
	} else {
		zap.L().Info("created default admin user", zap.String("username", user.Username))
	}
	return nil
}

// WithTx runs fn in a transaction. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or the pool.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// affected turns a zero-row conditional write into errIfNone.
func affected(result *gorm.DB, fallback, errIfNone error) error {
	if result.Error != nil {
		return mapError(result.Error, fallback)
	}
	if result.RowsAffected == 0 {
		return errIfNone
	}
	return nil
}
