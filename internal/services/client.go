package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterClientRequest describes a new client.
type RegisterClientRequest struct {
	UserID       string
	Name         string
	Description  string
	HomepageURL  string
	IsPublic     bool
	RedirectURIs []string
}

// UpdateClientRequest carries the mutable descriptive fields.
type UpdateClientRequest struct {
	Name        string
	Description string
	HomepageURL string
}

// ClientService authenticates clients and manages the client registry.
type ClientService struct {
	clients  core.ClientRepository
	uris     core.RedirectURIRepository
	tx       core.Transactor
	cache    core.Cache[models.Client]
	cacheTTL time.Duration
	metrics  core.Recorder
	audit    *AuditService
}

func NewClientService(
	clients core.ClientRepository,
	uris core.RedirectURIRepository,
	tx core.Transactor,
	cache core.Cache[models.Client],
	cacheTTL time.Duration,
	metrics core.Recorder,
	audit *AuditService,
) *ClientService {
	return &ClientService{
		clients:  clients,
		uris:     uris,
		tx:       tx,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		audit:    audit,
	}
}

// Get returns a client by id, served from the lookup cache when possible.
func (s *ClientService) Get(ctx context.Context, clientID string) (*models.Client, error) {
	if clientID == "" {
		return nil, newError(KindNotFound, "client not found", nil)
	}
	client, err := s.cache.GetOrLoad(ctx, clientID, s.cacheTTL,
		func(ctx context.Context, id string) (models.Client, error) {
			c, err := s.clients.GetClientByID(ctx, id)
			if err != nil {
				return models.Client{}, err
			}
			return *c, nil
		})
	if err != nil {
		return nil, fromStore("client not found", err)
	}
	return &client, nil
}

// Authenticate resolves a client from presented credentials. An empty secret
// means none was presented, which is only acceptable for public clients. Every
// failure looks the same to the caller.
func (s *ClientService) Authenticate(ctx context.Context, clientID, secret string) (*models.Client, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		if KindOf(err) != KindNotFound {
			return nil, err
		}
		client = nil
	}

	ok := client != nil
	if ok {
		if secret == "" {
			ok = client.IsPublic
		} else {
			ok = !client.IsPublic && client.ValidateSecret(secret)
		}
	}

	s.metrics.RecordClientAuthentication(ok)
	if !ok {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:     models.EventClientAuthFailed,
			Severity:      models.SeverityWarning,
			ActorClientID: clientID,
			ResourceType:  models.ResourceClient,
			ResourceID:    clientID,
			Action:        "client authentication failed",
		})
		return nil, newError(KindNotFound, "client not found", nil)
	}
	return client, nil
}

// Register creates a client. For confidential clients the plaintext secret
// is returned once and never stored.
func (s *ClientService) Register(ctx context.Context, req RegisterClientRequest) (*models.Client, string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, "", newError(KindInvalidRequest, "client name is required", nil)
	}
	if len(req.RedirectURIs) == 0 {
		return nil, "", newError(KindInvalidRequest, "at least one redirect uri is required", nil)
	}

	client := &models.Client{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		IsPublic:    req.IsPublic,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		HomepageURL: strings.TrimSpace(req.HomepageURL),
	}

	seen := make(map[string]struct{}, len(req.RedirectURIs))
	for _, raw := range req.RedirectURIs {
		if err := util.ValidateRedirectURI(raw); err != nil {
			return nil, "", newError(KindInvalidRequest, "invalid redirect uri", err)
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		client.RedirectURIs = append(client.RedirectURIs, models.RedirectURI{URI: raw})
	}

	var secret string
	if !req.IsPublic {
		var err error
		if secret, err = client.GenerateSecret(); err != nil {
			return nil, "", newError(KindInternal, "failed to generate client secret", err)
		}
	}

	if err := s.clients.CreateClient(ctx, client); err != nil {
		return nil, "", fromStore("failed to create client", err)
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientCreated,
		ActorUserID:  req.UserID,
		ResourceType: models.ResourceClient,
		ResourceID:   client.ID,
		ResourceName: client.Name,
		Action:       "client registered",
		Details:      models.AuditDetails{"is_public": client.IsPublic},
		Success:      true,
	})
	return client, secret, nil
}

// GetOwned returns the client only if userID owns it.
func (s *ClientService) GetOwned(ctx context.Context, userID, clientID string) (*models.Client, error) {
	client, err := s.clients.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, fromStore("client not found", err)
	}
	if client.UserID != userID {
		return nil, newError(KindNotFound, "client not found", nil)
	}
	return client, nil
}

// List returns the clients registered by userID.
func (s *ClientService) List(ctx context.Context, userID string) ([]models.Client, error) {
	clients, err := s.clients.GetClientsByUser(ctx, userID)
	if err != nil {
		return nil, fromStore("failed to list clients", err)
	}
	return clients, nil
}

func (s *ClientService) Update(
	ctx context.Context,
	userID, clientID string,
	req UpdateClientRequest,
) (*models.Client, error) {
	client, err := s.GetOwned(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		client.Name = name
	}
	client.Description = strings.TrimSpace(req.Description)
	client.HomepageURL = strings.TrimSpace(req.HomepageURL)

	if err := s.clients.UpdateClient(ctx, client); err != nil {
		return nil, fromStore("failed to update client", err)
	}
	s.invalidate(ctx, clientID)

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientUpdated,
		ActorUserID:  userID,
		ResourceType: models.ResourceClient,
		ResourceID:   client.ID,
		ResourceName: client.Name,
		Action:       "client updated",
		Success:      true,
	})
	return client, nil
}

// Delete removes the client and every credential issued to it.
func (s *ClientService) Delete(ctx context.Context, userID, clientID string) error {
	if _, err := s.GetOwned(ctx, userID, clientID); err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, clientID); err != nil {
		return fromStore("failed to delete client", err)
	}
	s.invalidate(ctx, clientID)

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventClientDeleted,
		Severity:     models.SeverityWarning,
		ActorUserID:  userID,
		ResourceType: models.ResourceClient,
		ResourceID:   clientID,
		Action:       "client deleted",
		Success:      true,
	})
	return nil
}

func (s *ClientService) AddRedirectURI(
	ctx context.Context,
	userID, clientID, uri string,
) (*models.RedirectURI, error) {
	if err := util.ValidateRedirectURI(uri); err != nil {
		return nil, newError(KindInvalidRequest, "invalid redirect uri", err)
	}
	if _, err := s.GetOwned(ctx, userID, clientID); err != nil {
		return nil, err
	}

	r := &models.RedirectURI{ClientID: clientID, URI: uri}
	if err := s.uris.CreateRedirectURI(ctx, r); err != nil {
		return nil, fromStore("failed to add redirect uri", err)
	}
	s.invalidate(ctx, clientID)

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventRedirectURIAdded,
		ActorUserID:  userID,
		ResourceType: models.ResourceClient,
		ResourceID:   clientID,
		Action:       "redirect uri added",
		Details:      models.AuditDetails{"redirect_uri": uri},
		Success:      true,
	})
	return r, nil
}

// RemoveRedirectURI deletes one redirect URI. A client always keeps at least
// one, so removing the last is rejected.
func (s *ClientService) RemoveRedirectURI(ctx context.Context, userID, clientID string, uriID uint) error {
	if _, err := s.GetOwned(ctx, userID, clientID); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		uris, err := s.uris.GetRedirectURIsByClient(ctx, clientID)
		if err != nil {
			return fromStore("failed to load redirect uris", err)
		}
		found := false
		for _, u := range uris {
			if u.ID == uriID {
				found = true
				break
			}
		}
		if !found {
			return newError(KindNotFound, "redirect uri not found", nil)
		}
		if len(uris) <= 1 {
			return newError(KindInvalidRequest, "client must keep at least one redirect uri", nil)
		}
		return fromStore("failed to remove redirect uri", s.uris.DeleteRedirectURI(ctx, clientID, uriID))
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, clientID)

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventRedirectURIRemoved,
		ActorUserID:  userID,
		ResourceType: models.ResourceClient,
		ResourceID:   clientID,
		Action:       "redirect uri removed",
		Success:      true,
	})
	return nil
}

func (s *ClientService) invalidate(ctx context.Context, clientID string) {
	if err := s.cache.Delete(ctx, clientID); err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Warn("failed to invalidate client cache",
			zap.String("client_id", clientID),
			zap.Error(err),
		)
	}
}
