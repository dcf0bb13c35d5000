package store

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateDeviceAuthorization(ctx context.Context, auth *models.DeviceAuthorization) error {
	return mapError(s.conn(ctx).Create(auth).Error, ErrNotCreated)
}

// GetDeviceAuthorizationByDeviceCode returns the record in any state so the
// poller can report expiry and denial.
func (s *Store) GetDeviceAuthorizationByDeviceCode(
	ctx context.Context,
	deviceCodeHash, clientID string,
) (*models.DeviceAuthorization, error) {
	var auth models.DeviceAuthorization
	err := s.conn(ctx).
		Where("device_code_hash = ? AND client_id = ?", deviceCodeHash, clientID).
		First(&auth).Error
	if err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &auth, nil
}

func (s *Store) GetDeviceAuthorizationByUserCode(
	ctx context.Context,
	userCode string,
) (*models.DeviceAuthorization, error) {
	var auth models.DeviceAuthorization
	if err := s.conn(ctx).Where("user_code = ?", userCode).First(&auth).Error; err != nil {
		return nil, mapError(err, ErrQueryFailed)
	}
	return &auth, nil
}

// RecordDevicePoll is a compare-and-set on last_polled_at. The row's own
// interval decides the threshold, so it is read and checked in one transaction.
func (s *Store) RecordDevicePoll(ctx context.Context, id uint, now time.Time) (bool, error) {
	var allowed bool
	err := s.WithTx(ctx, func(ctx context.Context) error {
		var auth models.DeviceAuthorization
		if err := s.conn(ctx).Select("id", "poll_interval", "last_polled_at").
			Where("id = ?", id).First(&auth).Error; err != nil {
			return mapError(err, ErrQueryFailed)
		}

		query := s.conn(ctx).Model(&models.DeviceAuthorization{}).Where("id = ?", id)
		if auth.LastPolledAt == nil {
			query = query.Where("last_polled_at IS NULL")
		} else {
			if now.Sub(*auth.LastPolledAt) < time.Duration(auth.PollInterval)*time.Second {
				return nil
			}
			query = query.Where("last_polled_at = ?", *auth.LastPolledAt)
		}

		result := query.Update("last_polled_at", now)
		if result.Error != nil {
			return mapError(result.Error, ErrNotUpdated)
		}
		allowed = result.RowsAffected == 1
		return nil
	})
	return allowed, err
}

// IncreaseDevicePollInterval applies the RFC 8628 §3.5 slow_down back-off.
func (s *Store) IncreaseDevicePollInterval(ctx context.Context, id uint, by int) error {
	result := s.conn(ctx).
		Model(&models.DeviceAuthorization{}).
		Where("id = ?", id).
		Update("poll_interval", gorm.Expr("poll_interval + ?", by))
	return affected(result, ErrNotUpdated, ErrNotFound)
}

func (s *Store) ResolveDeviceAuthorization(
	ctx context.Context,
	userCode, userID string,
	status models.DeviceStatus,
	now time.Time,
) error {
	result := s.conn(ctx).
		Model(&models.DeviceAuthorization{}).
		Where("user_code = ? AND status = ? AND expires_at > ?",
			userCode, models.DeviceStatusPending, now).
		Updates(map[string]any{
			"status":      status,
			"user_id":     userID,
			"resolved_at": now,
		})
	return affected(result, ErrNotUpdated, ErrConsumed)
}

func (s *Store) ConsumeDeviceAuthorization(ctx context.Context, id uint) error {
	result := s.conn(ctx).
		Model(&models.DeviceAuthorization{}).
		Where("id = ? AND status = ?", id, models.DeviceStatusApproved).
		Update("status", models.DeviceStatusConsumed)
	return affected(result, ErrNotUpdated, ErrConsumed)
}

func (s *Store) DeleteExpiredDeviceAuthorizations(ctx context.Context, now time.Time) (int64, error) {
	result := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.DeviceAuthorization{})
	return result.RowsAffected, mapError(result.Error, ErrNotDeleted)
}
