package store

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

// CreateAuditLogBatch writes a batch of audit entries in one insert.
func (s *Store) CreateAuditLogBatch(ctx context.Context, logs []*models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return mapError(s.conn(ctx).CreateInBatches(logs, 100).Error, ErrNotCreated)
}

// DeleteOldAuditLogs removes entries created before the cutoff.
func (s *Store) DeleteOldAuditLogs(ctx context.Context, before time.Time) (int64, error) {
	result := s.conn(ctx).Where("created_at < ?", before).Delete(&models.AuditLog{})
	return result.RowsAffected, mapError(result.Error, ErrNotDeleted)
}
