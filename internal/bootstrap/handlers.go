package bootstrap

import (
	"github.com/quasiuslikecautious/lockrs-sub000/internal/config"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/handlers"
)

type healthCheck = handlers.HealthCheck

// handlerSet holds all HTTP handlers
type handlerSet struct {
	token         *handlers.TokenHandler
	authorization *handlers.AuthorizationHandler
	device        *handlers.DeviceHandler
	session       *handlers.SessionHandler
	client        *handlers.ClientHandler
	health        *handlers.HealthHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	svc serviceSet,
	checks map[string]healthCheck,
) handlerSet {
	return handlerSet{
		token:         handlers.NewTokenHandler(svc.grant, svc.token, svc.client),
		authorization: handlers.NewAuthorizationHandler(svc.authorization),
		device:        handlers.NewDeviceHandler(svc.device, svc.client, svc.scope),
		session:       handlers.NewSessionHandler(svc.user, svc.session, cfg.SecureCookies),
		client:        handlers.NewClientHandler(svc.client),
		health:        handlers.NewHealthHandler(checks),
	}
}
