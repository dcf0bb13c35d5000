package services

import (
	"context"
	"errors"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenBytes      = 32
	TokenTypeBearer = "Bearer"

	TokenTypeHintAccessToken  = "access_token"
	TokenTypeHintRefreshToken = "refresh_token"
)

// TokenPair is what a successful grant returns. The raw tokens exist only here.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string
	ExpiresIn        int64
	Scopes           models.ScopeSet
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Introspection is the RFC 7662 view of a token.
type Introspection struct {
	Active    bool
	TokenType string
	ClientID  string
	UserID    string
	Scopes    models.ScopeSet
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService mints, rotates and revokes opaque bearer tokens.
type TokenService struct {
	access     core.AccessTokenRepository
	refresh    core.RefreshTokenRepository
	tx         core.Transactor
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    core.Recorder
	audit      *AuditService
	now        func() time.Time
}

func NewTokenService(
	access core.AccessTokenRepository,
	refresh core.RefreshTokenRepository,
	tx core.Transactor,
	accessTTL, refreshTTL time.Duration,
	metrics core.Recorder,
	audit *AuditService,
) *TokenService {
	return &TokenService{
		access:     access,
		refresh:    refresh,
		tx:         tx,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		metrics:    metrics,
		audit:      audit,
		now:        time.Now,
	}
}

// Issue mints a linked access/refresh pair. An empty userID marks a
// client-credentials grant.
func (s *TokenService) Issue(
	ctx context.Context,
	clientID, userID string,
	scopes models.ScopeSet,
) (*TokenPair, error) {
	now := s.now().UTC()

	rawAccess, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, newError(KindInternal, "failed to generate access token", err)
	}
	rawRefresh, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, newError(KindInternal, "failed to generate refresh token", err)
	}

	access := &models.AccessToken{
		ID:        uuid.New().String(),
		TokenHash: util.SHA256Hex(rawAccess),
		RawToken:  rawAccess,
		ClientID:  clientID,
		UserID:    models.StringPtr(userID),
		Scopes:    scopes.String(),
		ExpiresAt: now.Add(s.accessTTL),
		CreatedAt: now,
	}
	refresh := &models.RefreshToken{
		ID:            uuid.New().String(),
		TokenHash:     util.SHA256Hex(rawRefresh),
		RawToken:      rawRefresh,
		AccessTokenID: access.ID,
		ClientID:      clientID,
		UserID:        models.StringPtr(userID),
		Scopes:        scopes.String(),
		ExpiresAt:     now.Add(s.refreshTTL),
		CreatedAt:     now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.access.CreateAccessToken(ctx, access); err != nil {
			return fromStore("failed to create access token", err)
		}
		if err := s.refresh.CreateRefreshToken(ctx, refresh); err != nil {
			return fromStore("failed to create refresh token", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      rawAccess,
		RefreshToken:     rawRefresh,
		TokenType:        TokenTypeBearer,
		ExpiresIn:        int64(s.accessTTL / time.Second),
		Scopes:           scopes,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// UseRefreshToken marks a refresh token used in one atomic step. Unknown,
// used, expired and foreign tokens all fail as not found.
func (s *TokenService) UseRefreshToken(
	ctx context.Context,
	refreshToken, clientID string,
) (*models.RefreshToken, error) {
	if refreshToken == "" {
		return nil, newError(KindNotFound, "refresh token not found", nil)
	}
	rt, err := s.refresh.UseRefreshToken(ctx, util.SHA256Hex(refreshToken), clientID, s.now().UTC())
	if err != nil {
		return nil, fromStore("refresh token not found", err)
	}
	return rt, nil
}

// Refresh consumes refreshToken and issues a new pair in one transaction, so
// a failed reissue leaves the old token usable. requested may narrow the
// original scopes but never widen them; empty keeps them.
func (s *TokenService) Refresh(
	ctx context.Context,
	clientID, refreshToken string,
	requested models.ScopeSet,
) (*TokenPair, error) {
	var pair *TokenPair
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		rt, err := s.UseRefreshToken(ctx, refreshToken, clientID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return newError(KindInvalidGrant, "refresh token is invalid, expired or already used", err)
			}
			return err
		}

		scopes := rt.ScopeSet()
		if len(requested) > 0 {
			if !requested.IsSubsetOf(scopes) {
				return newError(KindInvalidScope, "requested scope exceeds the original grant", nil)
			}
			scopes = requested
		}

		pair, err = s.Issue(ctx, clientID, models.StringValue(rt.UserID), scopes)
		return err
	})

	s.metrics.RecordTokenRefresh(err == nil)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventTokenRefreshed,
		ActorClientID: clientID,
		ResourceType:  models.ResourceToken,
		Action:        "refresh token rotated",
		Details:       models.AuditDetails{"scope": pair.Scopes.String()},
		Success:       true,
	})
	return pair, nil
}

// Revoke implements RFC 7009. Unknown tokens and tokens of other clients are
// ignored so the call is idempotent and leaks nothing. Revoking a refresh
// token also revokes the access token issued with it.
func (s *TokenService) Revoke(ctx context.Context, clientID, rawToken, hint string) error {
	if rawToken == "" {
		return newError(KindInvalidRequest, "token is required", nil)
	}
	hash := util.SHA256Hex(rawToken)

	lookups := []func(context.Context, string, string) (bool, error){s.revokeRefresh, s.revokeAccess}
	if hint == TokenTypeHintAccessToken {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, revoke := range lookups {
		done, err := revoke(ctx, clientID, hash)
		if err != nil {
			return err
		}
		if done {
			s.metrics.RecordTokenRevoked()
			s.audit.Log(ctx, AuditLogEntry{
				EventType:     models.EventTokenRevoked,
				ActorClientID: clientID,
				ResourceType:  models.ResourceToken,
				Action:        "token revoked",
				Success:       true,
			})
			return nil
		}
	}
	return nil
}

func (s *TokenService) revokeRefresh(ctx context.Context, clientID, hash string) (bool, error) {
	var revoked bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		rt, err := s.refresh.GetRefreshTokenByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fromStore("failed to look up refresh token", err)
		}
		if rt.ClientID != clientID {
			return nil
		}
		if err := s.refresh.DeleteRefreshToken(ctx, rt.ID); err != nil {
			return fromStore("failed to revoke refresh token", err)
		}
		if err := s.access.DeleteAccessToken(ctx, rt.AccessTokenID); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			return fromStore("failed to revoke access token", err)
		}
		revoked = true
		return nil
	})
	return revoked, err
}

func (s *TokenService) revokeAccess(ctx context.Context, clientID, hash string) (bool, error) {
	at, err := s.access.GetAccessToken(ctx, hash, s.now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fromStore("failed to look up access token", err)
	}
	if at.ClientID != clientID {
		return false, nil
	}
	if err := s.access.DeleteAccessToken(ctx, at.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fromStore("failed to revoke access token", err)
	}
	return true, nil
}

// Introspect reports whether rawToken is a live access or refresh token.
func (s *TokenService) Introspect(ctx context.Context, rawToken string) (*Introspection, error) {
	if rawToken == "" {
		return &Introspection{}, nil
	}
	now := s.now().UTC()
	hash := util.SHA256Hex(rawToken)

	at, err := s.access.GetAccessToken(ctx, hash, now)
	switch {
	case err == nil:
		return &Introspection{
			Active:    true,
			TokenType: TokenTypeHintAccessToken,
			ClientID:  at.ClientID,
			UserID:    models.StringValue(at.UserID),
			Scopes:    at.ScopeSet(),
			IssuedAt:  at.CreatedAt,
			ExpiresAt: at.ExpiresAt,
		}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fromStore("failed to look up access token", err)
	}

	rt, err := s.refresh.GetRefreshToken(ctx, hash, now)
	switch {
	case err == nil:
		return &Introspection{
			Active:    true,
			TokenType: TokenTypeHintRefreshToken,
			ClientID:  rt.ClientID,
			UserID:    models.StringValue(rt.UserID),
			Scopes:    rt.ScopeSet(),
			IssuedAt:  rt.CreatedAt,
			ExpiresAt: rt.ExpiresAt,
		}, nil
	case errors.Is(err, store.ErrNotFound):
		return &Introspection{}, nil
	default:
		return nil, fromStore("failed to look up refresh token", err)
	}
}

// DeleteExpired removes expired access and refresh tokens.
func (s *TokenService) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	access, err := s.access.DeleteExpiredAccessTokens(ctx, now)
	if err != nil {
		return 0, fromStore("failed to delete expired access tokens", err)
	}
	refresh, err := s.refresh.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return access, fromStore("failed to delete expired refresh tokens", err)
	}
	if total := access + refresh; total > 0 {
		zap.L().Debug("deleted expired tokens",
			zap.Int64("access", access),
			zap.Int64("refresh", refresh),
		)
	}
	return access + refresh, nil
}
