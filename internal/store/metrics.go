package store

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

func (s *Store) CountActiveAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.AccessToken{}).
		Where("expires_at > ?", now).
		Count(&count).Error
	return count, mapError(err, ErrQueryFailed)
}

func (s *Store) CountActiveRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.RefreshToken{}).
		Where("used = ? AND expires_at > ?", false, now).
		Count(&count).Error
	return count, mapError(err, ErrQueryFailed)
}

func (s *Store) CountPendingDeviceAuthorizations(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.DeviceAuthorization{}).
		Where("status = ? AND expires_at > ?", models.DeviceStatusPending, now).
		Count(&count).Error
	return count, mapError(err, ErrQueryFailed)
}
