package store

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) CreateAuthorizationCode(ctx context.Context, code *models.AuthorizationCode) error {
	return mapError(s.conn(ctx).Create(code).Error, ErrNotCreated)
}

func (s *Store) GetAuthorizationCode(
	ctx context.Context,
	codeHash, clientID string,
	now time.Time,
) (*models.AuthorizationCode, error) {
	var code models.AuthorizationCode
	err := s.conn(ctx).
		Where("code_hash = ? AND client_id = ? AND used = ? AND expires_at > ?",
			codeHash, clientID, false, now).
		First(&code).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &code, nil
}

// ConsumeAuthorizationCode marks the code used with a single conditional
// UPDATE. Zero rows means a concurrent exchange won the race.
func (s *Store) ConsumeAuthorizationCode(ctx context.Context, id uint, now time.Time) error {
	result := s.conn(ctx).
		Model(&models.AuthorizationCode{}).
		Where("id = ? AND used = ? AND expires_at > ?", id, false, now).
		Updates(map[string]any{"used": true, "used_at": now})
	return affected(result, ErrNotUpdated, ErrConsumed)
}

func (s *Store) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	result := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.AuthorizationCode{})
	return result.RowsAffected, mapError(result.Error, ErrNotDeleted)
}
