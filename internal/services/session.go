package services

import (
	"context"
	"errors"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/token"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"
)

// IssuedSessionToken is the raw single-use token returned after login.
type IssuedSessionToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// SessionService manages first-party login sessions: the single-use session
// token minted at login, the durable session it is exchanged for, and the
// signed cookie that carries the session id.
type SessionService struct {
	sessions core.SessionRepository
	tokens   core.SessionTokenRepository
	signer   *token.CookieSigner
	tokenTTL time.Duration
	duration time.Duration
	metrics  core.Recorder
	audit    *AuditService
	now      func() time.Time
}

func NewSessionService(
	sessions core.SessionRepository,
	tokens core.SessionTokenRepository,
	signer *token.CookieSigner,
	tokenTTL, duration time.Duration,
	metrics core.Recorder,
	audit *AuditService,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		tokens:   tokens,
		signer:   signer,
		tokenTTL: tokenTTL,
		duration: duration,
		metrics:  metrics,
		audit:    audit,
		now:      time.Now,
	}
}

// IssueSessionToken mints the short-lived token a logged-in user exchanges
// for a session.
func (s *SessionService) IssueSessionToken(ctx context.Context, userID string) (*IssuedSessionToken, error) {
	raw, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, newError(KindInternal, "failed to generate session token", err)
	}

	st := &models.SessionToken{
		TokenHash: util.SHA256Hex(raw),
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(s.tokenTTL),
	}
	if err := s.tokens.CreateSessionToken(ctx, st); err != nil {
		return nil, fromStore("failed to create session token", err)
	}
	return &IssuedSessionToken{Token: raw, UserID: userID, ExpiresAt: st.ExpiresAt}, nil
}

// CreateSession consumes a session token and opens a session for its user,
// replacing any session the user already had.
func (s *SessionService) CreateSession(ctx context.Context, sessionToken string) (*models.Session, error) {
	st, err := s.consume(ctx, sessionToken)
	s.metrics.RecordSessionTokenExchange(err == nil)
	if err != nil {
		return nil, err
	}

	id, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, newError(KindInternal, "failed to generate session id", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        id,
		UserID:    st.UserID,
		ExpiresAt: now.Add(s.duration),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fromStore("failed to create session", err)
	}

	s.metrics.RecordSessionCreated()
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventSessionCreated,
		ActorUserID:  st.UserID,
		ResourceType: models.ResourceSession,
		ResourceID:   st.UserID,
		Action:       "session created",
		Success:      true,
	})
	return session, nil
}

func (s *SessionService) consume(ctx context.Context, sessionToken string) (*models.SessionToken, error) {
	if sessionToken == "" {
		return nil, newError(KindInvalidToken, "session token is required", nil)
	}
	st, err := s.tokens.ConsumeSessionToken(ctx, util.SHA256Hex(sessionToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidToken, "session token is invalid, expired or already used", nil)
		}
		return nil, fromStore("failed to consume session token", err)
	}
	if !s.now().UTC().Before(st.ExpiresAt) {
		return nil, newError(KindInvalidToken, "session token is invalid, expired or already used", nil)
	}
	return st, nil
}

// GetSession returns the user's session when sessionID names it and it has
// not expired.
func (s *SessionService) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	if userID == "" || sessionID == "" {
		return nil, newError(KindNotFound, "session not found", nil)
	}
	session, err := s.sessions.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fromStore("session not found", err)
	}
	if session.IsExpired(s.now().UTC()) {
		return nil, newError(KindNotFound, "session not found", nil)
	}
	return session, nil
}

// UpdateSession validates the session and, when refresh is set, pushes its
// expiry out by the full session duration.
func (s *SessionService) UpdateSession(
	ctx context.Context,
	userID, sessionID string,
	refresh bool,
) (*models.Session, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !refresh {
		return session, nil
	}

	session.ExpiresAt = s.now().UTC().Add(s.duration)
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, fromStore("failed to refresh session", err)
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventSessionRefreshed,
		ActorUserID:  userID,
		ResourceType: models.ResourceSession,
		ResourceID:   userID,
		Action:       "session refreshed",
		Success:      true,
	})
	return session, nil
}

// DeleteSession ends the user's session. Deleting a missing session succeeds.
func (s *SessionService) DeleteSession(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteSessionByUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fromStore("failed to delete session", err)
	}

	s.metrics.RecordSessionDeleted()
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventSessionDeleted,
		ActorUserID:  userID,
		ResourceType: models.ResourceSession,
		ResourceID:   userID,
		Action:       "session deleted",
		Success:      true,
	})
	return nil
}

// SignCookie returns the signed session cookie value for session.
func (s *SessionService) SignCookie(session *models.Session) (string, error) {
	raw, err := s.signer.Sign(session.ID, session.UserID, session.ExpiresAt)
	if err != nil {
		return "", newError(KindInternal, "failed to sign session cookie", err)
	}
	return raw, nil
}

// VerifyCookie checks a session cookie and returns the session it names. The
// cookie alone is not proof of a live session; the stored record must match.
func (s *SessionService) VerifyCookie(ctx context.Context, raw string) (*models.Session, error) {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return nil, newError(KindInvalidToken, "invalid session cookie", err)
	}
	session, err := s.GetSession(ctx, claims.Subject, claims.SessionID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, newError(KindInvalidToken, "session is no longer valid", err)
		}
		return nil, err
	}
	return session, nil
}
