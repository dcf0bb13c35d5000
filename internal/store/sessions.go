package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"github.com/redis/go-redis/v9"
)

var (
	_ core.SessionRepository      = (*SessionStore)(nil)
	_ core.SessionTokenRepository = (*SessionStore)(nil)
)

const (
	keyTypeSession      = "session"
	keyTypeSessionToken = "session_token"
)

// SessionStore keeps sessions and session tokens in Redis. Both expire with
// the key TTL, so no sweeper is needed.
type SessionStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewSessionStore wraps a connected client. Tests pass a miniredis-backed one.
func NewSessionStore(client redis.UniversalClient, keyPrefix string) *SessionStore {
	return &SessionStore{client: client, keyPrefix: keyPrefix}
}

func (s *SessionStore) key(keyType, id string) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, keyType, id)
}

// CreateSession overwrites whatever session the user had.
func (s *SessionStore) CreateSession(ctx context.Context, session *models.Session) error {
	if err := s.setJSON(ctx, s.key(keyTypeSession, session.UserID), session, session.ExpiresAt); err != nil {
		return fmt.Errorf("%w: %w", ErrNotCreated, err)
	}
	return nil
}

// GetSession returns the user's session only when its id matches sessionID.
func (s *SessionStore) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key(keyTypeSession, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal session: %w", ErrQueryFailed, err)
	}
	if subtle.ConstantTimeCompare([]byte(session.ID), []byte(sessionID)) != 1 {
		return nil, ErrNotFound
	}
	return &session, nil
}

// updateSessionScript rewrites the user's session only while it still holds
// the same session id. Returns 1 on success, 0 if the key is gone or a newer
// login replaced it.
var updateSessionScript = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
	return 0
end
local current = cjson.decode(data)
if current.id ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// UpdateSession rewrites an existing session, typically with a later expiry.
// It fails with ErrNotFound once the session key is gone or holds another
// session id.
func (s *SessionStore) UpdateSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotUpdated, err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrNotFound
	}
	key := s.key(keyTypeSession, session.UserID)
	result, err := updateSessionScript.Run(ctx, s.client, []string{key},
		session.ID, data, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotUpdated, err)
	}
	if result == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) DeleteSessionByUser(ctx context.Context, userID string) error {
	n, err := s.client.Del(ctx, s.key(keyTypeSession, userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotDeleted, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) CreateSessionToken(ctx context.Context, token *models.SessionToken) error {
	if err := s.setJSON(ctx, s.key(keyTypeSessionToken, token.TokenHash), token, token.ExpiresAt); err != nil {
		return fmt.Errorf("%w: %w", ErrNotCreated, err)
	}
	return nil
}

// ConsumeSessionToken uses GETDEL so two concurrent exchanges of the same
// token cannot both succeed.
func (s *SessionStore) ConsumeSessionToken(ctx context.Context, tokenHash string) (*models.SessionToken, error) {
	data, err := s.client.GetDel(ctx, s.key(keyTypeSessionToken, tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	var token models.SessionToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal session token: %w", ErrQueryFailed, err)
	}
	return &token, nil
}

// Health pings Redis.
func (s *SessionStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) setJSON(ctx context.Context, key string, v any, expiresAt time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return errors.New("already expired")
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
