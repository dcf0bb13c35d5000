package bootstrap

import (
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/token"

	"go.uber.org/zap"
)

const cookieIssuer = "lockrs"

// serviceSet holds the business services shared by handlers and jobs.
type serviceSet struct {
	audit         *services.AuditService
	scope         *services.ScopeService
	client        *services.ClientService
	token         *services.TokenService
	authorization *services.AuthorizationService
	device        *services.DeviceService
	session       *services.SessionService
	user          *services.UserService
	grant         *services.GrantService
}

// initializeKeyManager creates the rotating signing keys for session cookies.
func initializeKeyManager(cfg *config.Config, recorder core.Recorder) (*token.KeyManager, error) {
	return token.NewKeyManager(
		cfg.KeyRotationDuration,
		cfg.KeyTransitionDuration,
		token.WithRotationHook(func(k *token.Key) {
			recorder.RecordKeyRotation()
			zap.L().Info("signing key rotated", zap.String("version", k.Version))
		}),
	)
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	sessions *store.SessionStore,
	clientCache core.Cache[models.Client],
	keys *token.KeyManager,
	recorder core.Recorder,
) serviceSet {
	// Audit service (required by other services)
	audit := services.NewAuditService(db, cfg.EnableAuditLogging, cfg.AuditLogBufferSize)

	scopes := services.NewScopeService(db)
	clients := services.NewClientService(db, db, db, clientCache, cfg.ClientCacheTTL, recorder, audit)
	tokens := services.NewTokenService(
		db, db, db,
		cfg.AccessTokenExpiration,
		cfg.RefreshTokenExpiration,
		recorder,
		audit,
	)
	authorizations := services.NewAuthorizationService(
		clients,
		scopes,
		db,
		cfg.AuthCodeExpiration,
		recorder,
		audit,
	)
	devices := services.NewDeviceService(
		db,
		tokens,
		db,
		cfg.DeviceCodeExpiration,
		cfg.DevicePollInterval,
		cfg.BaseURL+cfg.DeviceVerificationPath,
		recorder,
		audit,
	)
	sessionService := services.NewSessionService(
		sessions,
		sessions,
		token.NewCookieSigner(keys, cookieIssuer),
		cfg.SessionTokenExpiration,
		cfg.SessionDuration,
		recorder,
		audit,
	)

	return serviceSet{
		audit:         audit,
		scope:         scopes,
		client:        clients,
		token:         tokens,
		authorization: authorizations,
		device:        devices,
		session:       sessionService,
		user:          services.NewUserService(db, recorder, audit),
		grant:         services.NewGrantService(clients, scopes, authorizations, devices, tokens, db, recorder, audit),
	}
}
