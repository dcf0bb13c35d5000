package services

import (
	"context"
	"errors"
	"strings"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps login timing flat when the username does not exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lockrs-dummy-password"), bcrypt.DefaultCost)

// UserService handles primary (username/password) login.
type UserService struct {
	users   core.UserRepository
	metrics core.Recorder
	audit   *AuditService
}

func NewUserService(users core.UserRepository, metrics core.Recorder, audit *AuditService) *UserService {
	return &UserService{users: users, metrics: metrics, audit: audit}
}

// Login verifies credentials. Unknown users and wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fromStore("failed to load user", err)
	}

	ok := false
	if user != nil {
		ok = user.CheckPassword(password)
	} else {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	}

	s.metrics.RecordLogin(ok)
	if !ok {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventAuthenticationFailure,
			Severity:     models.SeverityWarning,
			ResourceType: models.ResourceUser,
			ResourceName: username,
			Action:       "login failed",
		})
		return nil, newError(KindInvalidCredentials, "invalid username or password", nil)
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventAuthenticationSuccess,
		ActorUserID:  user.ID,
		ResourceType: models.ResourceUser,
		ResourceID:   user.ID,
		ResourceName: user.Username,
		Action:       "login succeeded",
		Success:      true,
	})
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fromStore("user not found", err)
	}
	return user, nil
}
