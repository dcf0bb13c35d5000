package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const auditBatchSize = 100

// AuditLogEntry represents the data needed to create an audit log entry
type AuditLogEntry struct {
	EventType     models.EventType
	Severity      models.EventSeverity
	ActorUserID   string
	ActorClientID string
	ActorIP       string
	ResourceType  models.ResourceType
	ResourceID    string
	ResourceName  string
	Action        string
	Details       models.AuditDetails
	Success       bool
	ErrorMessage  string
}

// AuditService writes audit entries in batches from a background worker.
// A nil *AuditService is valid and records nothing.
type AuditService struct {
	repo       core.AuditRepository
	enabled    bool
	bufferSize int

	// Async logging channel
	logChan chan *models.AuditLog

	// Batch buffer
	batchBuffer []*models.AuditLog
	batchMutex  sync.Mutex
	batchTicker *time.Ticker

	// Graceful shutdown
	wg           sync.WaitGroup
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewAuditService creates a new audit service
func NewAuditService(repo core.AuditRepository, enabled bool, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 1000 // Default buffer size
	}

	service := &AuditService{
		repo:        repo,
		enabled:     enabled,
		bufferSize:  bufferSize,
		logChan:     make(chan *models.AuditLog, bufferSize),
		batchBuffer: make([]*models.AuditLog, 0, auditBatchSize),
		shutdownCh:  make(chan struct{}),
	}

	if enabled {
		service.batchTicker = time.NewTicker(time.Second)
		service.wg.Add(1)
		go service.worker()
		zap.L().Info("audit service started", zap.Int("buffer_size", bufferSize))
	} else {
		zap.L().Info("audit service is disabled")
	}

	return service
}

// worker is the background goroutine that processes audit logs
func (s *AuditService) worker() {
	defer s.wg.Done()

	for {
		select {
		case entry := <-s.logChan:
			s.addToBatch(entry)

		case <-s.batchTicker.C:
			s.flushBatch()

		case <-s.shutdownCh:
			// Drain what is already queued, then flush.
			for {
				select {
				case entry := <-s.logChan:
					s.addToBatch(entry)
				default:
					s.flushBatch()
					return
				}
			}
		}
	}
}

func (s *AuditService) addToBatch(entry *models.AuditLog) {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()

	s.batchBuffer = append(s.batchBuffer, entry)
	if len(s.batchBuffer) >= auditBatchSize {
		s.flushBatchUnsafe()
	}
}

func (s *AuditService) flushBatch() {
	s.batchMutex.Lock()
	defer s.batchMutex.Unlock()
	s.flushBatchUnsafe()
}

// flushBatchUnsafe flushes the batch buffer without locking (caller must hold lock)
func (s *AuditService) flushBatchUnsafe() {
	if len(s.batchBuffer) == 0 {
		return
	}

	toWrite := make([]*models.AuditLog, len(s.batchBuffer))
	copy(toWrite, s.batchBuffer)
	s.batchBuffer = s.batchBuffer[:0]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.CreateAuditLogBatch(ctx, toWrite); err != nil {
		zap.L().Error("failed to write audit log batch",
			zap.Int("count", len(toWrite)),
			zap.Error(err),
		)
	}
}

func (s *AuditService) build(ctx context.Context, entry AuditLogEntry) *models.AuditLog {
	if entry.ActorIP == "" {
		entry.ActorIP = util.GetIPFromContext(ctx)
	}
	if entry.Severity == "" {
		entry.Severity = models.SeverityInfo
	}

	now := time.Now().UTC()
	return &models.AuditLog{
		ID:            uuid.New().String(),
		EventType:     entry.EventType,
		EventTime:     now,
		Severity:      entry.Severity,
		ActorUserID:   entry.ActorUserID,
		ActorClientID: entry.ActorClientID,
		ActorIP:       entry.ActorIP,
		ResourceType:  entry.ResourceType,
		ResourceID:    entry.ResourceID,
		ResourceName:  entry.ResourceName,
		Action:        entry.Action,
		Details:       maskSensitiveDetails(entry.Details),
		Success:       entry.Success,
		ErrorMessage:  entry.ErrorMessage,
		CreatedAt:     now,
	}
}

// Log records an audit log entry asynchronously. When the buffer is full the
// entry is dropped with a warning.
func (s *AuditService) Log(ctx context.Context, entry AuditLogEntry) {
	if s == nil || !s.enabled {
		return
	}

	select {
	case <-s.shutdownCh:
		return
	default:
	}

	select {
	case s.logChan <- s.build(ctx, entry):
	default:
		zap.L().Warn("audit log buffer full, dropping event",
			zap.String("event_type", string(entry.EventType)),
			zap.String("action", entry.Action),
		)
	}
}

// LogSync writes the entry immediately (for critical events such as
// credential replay).
func (s *AuditService) LogSync(ctx context.Context, entry AuditLogEntry) error {
	if s == nil || !s.enabled {
		return nil
	}
	return s.repo.CreateAuditLogBatch(ctx, []*models.AuditLog{s.build(ctx, entry)})
}

// CleanupOldLogs deletes audit logs older than the retention period
func (s *AuditService) CleanupOldLogs(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	return s.repo.DeleteOldAuditLogs(ctx, time.Now().UTC().Add(-retention))
}

// Shutdown flushes pending entries and stops the worker.
func (s *AuditService) Shutdown(ctx context.Context) error {
	if s == nil || !s.enabled {
		return nil
	}

	s.shutdownOnce.Do(func() {
		s.batchTicker.Stop()
		close(s.shutdownCh)
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("audit service shut down gracefully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit service shutdown timeout: %w", ctx.Err())
	}
}

// maskSensitiveDetails masks sensitive information in audit log details
func maskSensitiveDetails(details models.AuditDetails) models.AuditDetails {
	if details == nil {
		return details
	}

	masked := make(models.AuditDetails)
	for key, value := range details {
		if isSensitiveField(key) {
			masked[key] = "***REDACTED***"
			continue
		}

		// Partial masking for identifiers that are still useful to correlate
		if isPartialMaskField(key) {
			if str, ok := value.(string); ok && len(str) > 12 {
				masked[key] = str[:8] + "..." + str[len(str)-4:]
				continue
			}
		}

		masked[key] = value
	}

	return masked
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range []string{
		"password",
		"secret",
		"access_token",
		"refresh_token",
		"session_token",
		"code_verifier",
	} {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

func isPartialMaskField(key string) bool {
	key = strings.ToLower(key)
	for _, field := range []string{
		"device_code",
		"token_id",
		"session_id",
	} {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}
