package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"
)

const (
	// userCodeCharset has no vowels (no accidental words) and none of 0/O/1/I.
	userCodeCharset = "BCDFGHJKLMNPQRSTVWXZ23456789"
	userCodeLength  = 8

	// slowDownStep is added to the poll interval on every slow_down (RFC 8628 §3.5).
	slowDownStep = 5

	userCodeAttempts = 3
)

// PollStatus is the state a device poll reports.
type PollStatus string

const (
	PollPending  PollStatus = "pending"
	PollApproved PollStatus = "approved"
	PollDenied   PollStatus = "denied"
	PollExpired  PollStatus = "expired"
	PollSlowDown PollStatus = "slow_down"
)

// DeviceAuthorizationResponse is returned to the device (RFC 8628 §3.2).
type DeviceAuthorizationResponse struct {
	DeviceCode              string
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	ExpiresIn               int64
	Interval                int
}

// DevicePollResult is the outcome of one poll. Redeemed marks an approval
// that has already been exchanged for tokens.
type DevicePollResult struct {
	Status        PollStatus
	Scopes        models.ScopeSet
	UserID        string
	Redeemed      bool
	Interval      int
	Authorization *models.DeviceAuthorization
}

// DeviceService runs the device authorization grant.
type DeviceService struct {
	devices         core.DeviceAuthorizationRepository
	tokens          *TokenService
	tx              core.Transactor
	ttl             time.Duration
	interval        time.Duration
	verificationURI string
	metrics         core.Recorder
	audit           *AuditService
	now             func() time.Time
}

func NewDeviceService(
	devices core.DeviceAuthorizationRepository,
	tokens *TokenService,
	tx core.Transactor,
	ttl, interval time.Duration,
	verificationURI string,
	metrics core.Recorder,
	audit *AuditService,
) *DeviceService {
	return &DeviceService{
		devices:         devices,
		tokens:          tokens,
		tx:              tx,
		ttl:             ttl,
		interval:        interval,
		verificationURI: verificationURI,
		metrics:         metrics,
		audit:           audit,
		now:             time.Now,
	}
}

// Create starts a device authorization for client.
func (s *DeviceService) Create(
	ctx context.Context,
	client *models.Client,
	scopes models.ScopeSet,
) (*DeviceAuthorizationResponse, error) {
	resp, err := s.create(ctx, client, scopes)
	s.metrics.RecordDeviceCodeGenerated(err == nil)
	return resp, err
}

func (s *DeviceService) create(
	ctx context.Context,
	client *models.Client,
	scopes models.ScopeSet,
) (*DeviceAuthorizationResponse, error) {
	deviceCode, err := util.RandomToken(tokenBytes)
	if err != nil {
		return nil, newError(KindInternal, "failed to generate device code", err)
	}

	now := s.now().UTC()
	interval := int(s.interval / time.Second)
	auth := &models.DeviceAuthorization{
		DeviceCodeHash: util.SHA256Hex(deviceCode),
		ClientID:       client.ID,
		Scopes:         scopes.String(),
		Status:         models.DeviceStatusPending,
		PollInterval:   interval,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}

	// User codes are short; retry on the rare collision.
	for attempt := 1; ; attempt++ {
		if auth.UserCode, err = generateUserCode(); err != nil {
			return nil, newError(KindInternal, "failed to generate user code", err)
		}
		err = s.devices.CreateDeviceAuthorization(ctx, auth)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == userCodeAttempts {
			return nil, fromStore("failed to create device authorization", err)
		}
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventDeviceCodeGenerated,
		ActorClientID: client.ID,
		ResourceType:  models.ResourceDeviceCode,
		Action:        "device code generated",
		Details:       models.AuditDetails{"scope": auth.Scopes},
		Success:       true,
	})

	userCode := FormatUserCode(auth.UserCode)
	complete, err := util.AppendQuery(s.verificationURI, url.Values{"user_code": {userCode}})
	if err != nil {
		complete = ""
	}
	return &DeviceAuthorizationResponse{
		DeviceCode:              deviceCode,
		UserCode:                userCode,
		VerificationURI:         s.verificationURI,
		VerificationURIComplete: complete,
		ExpiresIn:               int64(s.ttl / time.Second),
		Interval:                interval,
	}, nil
}

// Poll reports the state of a device authorization. Expiry wins over every
// other state; polling faster than the current interval yields SlowDown and
// lengthens the interval.
func (s *DeviceService) Poll(ctx context.Context, clientID, deviceCode string) (*DevicePollResult, error) {
	result, err := s.poll(ctx, clientID, deviceCode)
	if err != nil {
		s.metrics.RecordDevicePoll("error")
		return nil, err
	}
	s.metrics.RecordDevicePoll(string(result.Status))
	return result, nil
}

func (s *DeviceService) poll(ctx context.Context, clientID, deviceCode string) (*DevicePollResult, error) {
	auth, err := s.devices.GetDeviceAuthorizationByDeviceCode(ctx, util.SHA256Hex(deviceCode), clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidGrant, "device code not found", nil)
		}
		return nil, fromStore("failed to load device authorization", err)
	}

	now := s.now().UTC()
	result := &DevicePollResult{Authorization: auth, Interval: auth.PollInterval}
	if auth.IsExpired(now) {
		result.Status = PollExpired
		return result, nil
	}

	allowed, err := s.devices.RecordDevicePoll(ctx, auth.ID, now)
	if err != nil {
		return nil, fromStore("failed to record device poll", err)
	}
	if !allowed {
		if err := s.devices.IncreaseDevicePollInterval(ctx, auth.ID, slowDownStep); err != nil {
			return nil, fromStore("failed to slow down device polling", err)
		}
		result.Status = PollSlowDown
		result.Interval = auth.PollInterval + slowDownStep
		return result, nil
	}

	switch auth.Status {
	case models.DeviceStatusPending:
		result.Status = PollPending
	case models.DeviceStatusDenied:
		result.Status = PollDenied
	case models.DeviceStatusApproved, models.DeviceStatusConsumed:
		result.Status = PollApproved
		result.Scopes = auth.ScopeSet()
		result.UserID = models.StringValue(auth.UserID)
		result.Redeemed = auth.Status == models.DeviceStatusConsumed
	default:
		return nil, newError(KindInternal, "unknown device authorization status "+string(auth.Status), nil)
	}
	return result, nil
}

// Redeem turns an approved, unredeemed device authorization into tokens.
// Consuming the approval and issuing the pair happen in one transaction.
func (s *DeviceService) Redeem(ctx context.Context, clientID, deviceCode string) (*TokenPair, error) {
	result, err := s.Poll(ctx, clientID, deviceCode)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case PollPending:
		return nil, newError(KindAuthorizationPending, "the user has not yet approved the request", nil)
	case PollSlowDown:
		return nil, newError(KindSlowDown, "polling too frequently", nil)
	case PollDenied:
		return nil, newError(KindAccessDenied, "the user denied the request", nil)
	case PollExpired:
		return nil, newError(KindExpiredOrUsed, "the device code has expired", nil)
	}
	if result.Redeemed {
		return nil, newError(KindInvalidGrant, "device code already redeemed", nil)
	}

	var pair *TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.devices.ConsumeDeviceAuthorization(ctx, result.Authorization.ID); err != nil {
			if errors.Is(err, store.ErrConsumed) {
				return newError(KindInvalidGrant, "device code already redeemed", err)
			}
			return fromStore("failed to consume device authorization", err)
		}
		pair, err = s.tokens.Issue(ctx, clientID, result.UserID, result.Scopes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Lookup returns the pending authorization behind a user code so the user
// can review it before deciding.
func (s *DeviceService) Lookup(ctx context.Context, userCode string) (*models.DeviceAuthorization, error) {
	auth, err := s.devices.GetDeviceAuthorizationByUserCode(ctx, NormalizeUserCode(userCode))
	if err != nil {
		return nil, fromStore("user code not found", err)
	}
	if auth.IsExpired(s.now().UTC()) || auth.Status != models.DeviceStatusPending {
		return nil, newError(KindExpiredOrUsed, "user code is expired or already used", nil)
	}
	return auth, nil
}

// Approve performs the one-time pending to approved transition.
func (s *DeviceService) Approve(ctx context.Context, userCode, userID string) error {
	return s.resolve(ctx, userCode, userID, models.DeviceStatusApproved)
}

// Deny performs the one-time pending to denied transition.
func (s *DeviceService) Deny(ctx context.Context, userCode, userID string) error {
	return s.resolve(ctx, userCode, userID, models.DeviceStatusDenied)
}

func (s *DeviceService) resolve(
	ctx context.Context,
	userCode, userID string,
	status models.DeviceStatus,
) error {
	auth, err := s.Lookup(ctx, userCode)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.devices.ResolveDeviceAuthorization(ctx, auth.UserCode, userID, status, now); err != nil {
		return fromStore("failed to resolve device authorization", err)
	}

	s.metrics.RecordDeviceCodeResolved(string(status), now.Sub(auth.CreatedAt))

	event, action := models.EventDeviceCodeApproved, "device code approved"
	if status == models.DeviceStatusDenied {
		event, action = models.EventDeviceCodeDenied, "device code denied"
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:     event,
		ActorUserID:   userID,
		ActorClientID: auth.ClientID,
		ResourceType:  models.ResourceDeviceCode,
		ResourceID:    auth.UserCode,
		Action:        action,
		Success:       true,
	})
	return nil
}

// DeleteExpired removes expired device authorizations.
func (s *DeviceService) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.devices.DeleteExpiredDeviceAuthorizations(ctx, s.now().UTC())
	if err != nil {
		return 0, fromStore("failed to delete expired device authorizations", err)
	}
	return n, nil
}

func generateUserCode() (string, error) {
	code := make([]byte, userCodeLength)
	limit := big.NewInt(int64(len(userCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = userCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// FormatUserCode formats a user code for display (e.g., "BCDFGHJK" -> "BCDF-GHJK")
func FormatUserCode(code string) string {
	if len(code) != userCodeLength {
		return code
	}
	return code[:4] + "-" + code[4:]
}

// NormalizeUserCode undoes display formatting and case changes.
func NormalizeUserCode(code string) string {
	code = strings.ToUpper(code)
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, code)
}
