package store

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	return mapError(s.conn(ctx).Create(token).Error, ErrNotCreated)
}

func (s *Store) GetAccessToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*models.AccessToken, error) {
	var token models.AccessToken
	err := s.conn(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, now).
		First(&token).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &token, nil
}

func (s *Store) DeleteAccessToken(ctx context.Context, id string) error {
	result := s.conn(ctx).Where("id = ?", id).Delete(&models.AccessToken{})
	return affected(result, ErrNotDeleted, ErrNotFound)
}

func (s *Store) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	result := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.AccessToken{})
	return result.RowsAffected, mapError(result.Error, ErrNotDeleted)
}

func (s *Store) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return mapError(s.conn(ctx).Create(token).Error, ErrNotCreated)
}

// GetRefreshToken returns an unused, unexpired refresh token.
func (s *Store) GetRefreshToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.conn(ctx).
		Where("token_hash = ? AND used = ? AND expires_at > ?", tokenHash, false, now).
		First(&token).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &token, nil
}

// UseRefreshToken flips used in one conditional UPDATE, then reads the row
// back. Only the caller whose UPDATE touched the row gets it.
func (s *Store) UseRefreshToken(
	ctx context.Context,
	tokenHash, clientID string,
	now time.Time,
) (*models.RefreshToken, error) {
	result := s.conn(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ? AND client_id = ? AND used = ? AND expires_at > ?",
			tokenHash, clientID, false, now).
		Updates(map[string]any{"used": true, "used_at": now})
	if err := affected(result, ErrNotUpdated, ErrNotFound); err != nil {
		return nil, err
	}

	var token models.RefreshToken
	if err := s.conn(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &token, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, id string) error {
	result := s.conn(ctx).Where("id = ?", id).Delete(&models.RefreshToken{})
	return affected(result, ErrNotDeleted, ErrNotFound)
}

// DeleteExpiredRefreshTokens also removes used tokens past their expiry.
func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	result := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.RefreshToken{})
	return result.RowsAffected, mapError(result.Error, ErrNotDeleted)
}

// GetRefreshTokenByHash returns the refresh token in any state; used by
// revocation and introspection.
func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.conn(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &token, nil
}
