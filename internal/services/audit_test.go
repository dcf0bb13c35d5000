package services

import (
	"context"
	"testing"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countAuditLogs(t *testing.T, env *testEnv) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.store.DB().Model(&models.AuditLog{}).Count(&n).Error)
	return n
}

func TestAuditService_LogFlushesOnShutdown(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAuditService(env.store, true, 10)
	ctx := util.SetIPContext(context.Background(), "203.0.113.7")

	for i := 0; i < 3; i++ {
		audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventTokenIssued,
			ResourceType: models.ResourceToken,
			Action:       "token issued",
			Success:      true,
		})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, audit.Shutdown(shutdownCtx))
	assert.Equal(t, int64(3), countAuditLogs(t, env))

	var entry models.AuditLog
	require.NoError(t, env.store.DB().First(&entry).Error)
	assert.Equal(t, "203.0.113.7", entry.ActorIP)
	assert.Equal(t, models.SeverityInfo, entry.Severity)

	// Entries after shutdown are ignored.
	audit.Log(ctx, AuditLogEntry{EventType: models.EventTokenIssued})
	require.NoError(t, audit.Shutdown(shutdownCtx))
	assert.Equal(t, int64(3), countAuditLogs(t, env))
}

func TestAuditService_LogSync(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAuditService(env.store, true, 10)
	t.Cleanup(func() { _ = audit.Shutdown(context.Background()) })

	require.NoError(t, audit.LogSync(context.Background(), AuditLogEntry{
		EventType:    models.EventCredentialReplay,
		Severity:     models.SeverityCritical,
		ResourceType: models.ResourceAuthorizationCode,
		ResourceID:   "42",
		Action:       "authorization code replayed",
	}))
	assert.Equal(t, int64(1), countAuditLogs(t, env))
}

func TestAuditService_Disabled(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAuditService(env.store, false, 10)

	audit.Log(context.Background(), AuditLogEntry{EventType: models.EventTokenIssued})
	require.NoError(t, audit.LogSync(context.Background(), AuditLogEntry{EventType: models.EventTokenIssued}))
	require.NoError(t, audit.Shutdown(context.Background()))
	assert.Equal(t, int64(0), countAuditLogs(t, env))

	var nilAudit *AuditService
	assert.NotPanics(t, func() {
		nilAudit.Log(context.Background(), AuditLogEntry{})
		_ = nilAudit.LogSync(context.Background(), AuditLogEntry{})
		_ = nilAudit.Shutdown(context.Background())
	})
}

func TestAuditService_CleanupOldLogs(t *testing.T) {
	env := newTestEnv(t)
	audit := NewAuditService(env.store, false, 10)

	old := &models.AuditLog{
		ID:        "old",
		EventType: models.EventTokenIssued,
		EventTime: time.Now().Add(-100 * 24 * time.Hour),
		Severity:  models.SeverityInfo,
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}
	recent := &models.AuditLog{
		ID:        "recent",
		EventType: models.EventTokenIssued,
		EventTime: time.Now(),
		Severity:  models.SeverityInfo,
		CreatedAt: time.Now(),
	}
	require.NoError(t, env.store.CreateAuditLogBatch(context.Background(), []*models.AuditLog{old, recent}))

	deleted, err := audit.CleanupOldLogs(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(1), countAuditLogs(t, env))
}

func TestMaskSensitiveDetails(t *testing.T) {
	masked := maskSensitiveDetails(models.AuditDetails{
		"client_secret": "lck_abcdef",
		"refresh_token": "whatever",
		"device_code":   "0123456789abcdefXYZ1",
		"session_id":    "short",
		"scope":         "read write",
	})

	assert.Equal(t, "***REDACTED***", masked["client_secret"])
	assert.Equal(t, "***REDACTED***", masked["refresh_token"])
	assert.Equal(t, "01234567...XYZ1", masked["device_code"])
	assert.Equal(t, "short", masked["session_id"])
	assert.Equal(t, "read write", masked["scope"])
	assert.Nil(t, maskSensitiveDetails(nil))
}
