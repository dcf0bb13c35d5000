package core

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

// Transactor runs fn inside one storage transaction. Repository calls made
// with the ctx handed to fn join that transaction; a returned error rolls
// everything back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByID(ctx context.Context, id string) (*models.Client, error)
	// GetClientByCredentials resolves a confidential client whose secret
	// matches. Wrong secret and unknown id are indistinguishable.
	GetClientByCredentials(ctx context.Context, id, secret string) (*models.Client, error)
	GetClientsByUser(ctx context.Context, userID string) ([]models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id string) error
}

type RedirectURIRepository interface {
	CreateRedirectURI(ctx context.Context, uri *models.RedirectURI) error
	GetRedirectURI(ctx context.Context, clientID, uri string) (*models.RedirectURI, error)
	GetRedirectURIsByClient(ctx context.Context, clientID string) ([]models.RedirectURI, error)
	DeleteRedirectURI(ctx context.Context, clientID string, id uint) error
}

type ScopeRepository interface {
	// GetScopesByNames returns the registered scopes among names.
	GetScopesByNames(ctx context.Context, names []string) ([]models.Scope, error)
	CreateScope(ctx context.Context, scope *models.Scope) error
	ListScopes(ctx context.Context) ([]models.Scope, error)
}

type AuthorizationCodeRepository interface {
	CreateAuthorizationCode(ctx context.Context, code *models.AuthorizationCode) error
	// GetAuthorizationCode returns an unused, unexpired code for the client.
	GetAuthorizationCode(ctx context.Context, codeHash, clientID string, now time.Time) (*models.AuthorizationCode, error)
	// ConsumeAuthorizationCode atomically flips used=false→true; it fails
	// with ErrConsumed when another caller got there first or the code expired.
	ConsumeAuthorizationCode(ctx context.Context, id uint, now time.Time) error
	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}

type DeviceAuthorizationRepository interface {
	CreateDeviceAuthorization(ctx context.Context, auth *models.DeviceAuthorization) error
	GetDeviceAuthorizationByDeviceCode(ctx context.Context, deviceCodeHash, clientID string) (*models.DeviceAuthorization, error)
	GetDeviceAuthorizationByUserCode(ctx context.Context, userCode string) (*models.DeviceAuthorization, error)
	// RecordDevicePoll stamps last_polled_at only when the previous poll is
	// at least the stored interval ago; false means the caller polled too fast.
	RecordDevicePoll(ctx context.Context, id uint, now time.Time) (bool, error)
	IncreaseDevicePollInterval(ctx context.Context, id uint, by int) error
	// ResolveDeviceAuthorization performs the one-time pending→approved|denied transition.
	ResolveDeviceAuthorization(ctx context.Context, userCode, userID string, status models.DeviceStatus, now time.Time) error
	// ConsumeDeviceAuthorization performs the one-time approved→consumed transition.
	ConsumeDeviceAuthorization(ctx context.Context, id uint) error
	DeleteExpiredDeviceAuthorizations(ctx context.Context, now time.Time) (int64, error)
}

type AccessTokenRepository interface {
	CreateAccessToken(ctx context.Context, token *models.AccessToken) error
	GetAccessToken(ctx context.Context, tokenHash string, now time.Time) (*models.AccessToken, error)
	DeleteAccessToken(ctx context.Context, id string) error
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)
	// UseRefreshToken is a single test-and-set: it marks an unused, unexpired
	// token of clientID as used and returns it.
	UseRefreshToken(ctx context.Context, tokenHash, clientID string, now time.Time) (*models.RefreshToken, error)
	// GetRefreshTokenByHash returns the token regardless of state.
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, id string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type SessionRepository interface {
	// CreateSession stores the session under its user id, replacing any prior one.
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	DeleteSessionByUser(ctx context.Context, userID string) error
}

type SessionTokenRepository interface {
	CreateSessionToken(ctx context.Context, token *models.SessionToken) error
	// ConsumeSessionToken reads and deletes the token in one step.
	ConsumeSessionToken(ctx context.Context, tokenHash string) (*models.SessionToken, error)
}

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type AuditRepository interface {
	CreateAuditLogBatch(ctx context.Context, logs []*models.AuditLog) error
	DeleteOldAuditLogs(ctx context.Context, before time.Time) (int64, error)
}
