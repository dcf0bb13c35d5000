package services

import (
	"context"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
)

// Grant types accepted at the token endpoint.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeDeviceCode        = "urn:ietf:params:oauth:grant-type:device_code"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeRefreshToken      = "refresh_token"
)

// GrantRequest is the union of the token endpoint parameters across grant types.
type GrantRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string

	// authorization_code
	Code         string
	RedirectURI  string
	CodeVerifier string

	// device_code
	DeviceCode string

	// refresh_token
	RefreshToken string

	// client_credentials, refresh_token
	Scope string
}

// GrantService drives one token request: authenticate the client, resolve
// scopes, run the grant's flow, then issue.
type GrantService struct {
	clients *ClientService
	scopes  *ScopeService
	authz   *AuthorizationService
	devices *DeviceService
	tokens  *TokenService
	tx      core.Transactor
	metrics core.Recorder
	audit   *AuditService
}

func NewGrantService(
	clients *ClientService,
	scopes *ScopeService,
	authz *AuthorizationService,
	devices *DeviceService,
	tokens *TokenService,
	tx core.Transactor,
	metrics core.Recorder,
	audit *AuditService,
) *GrantService {
	return &GrantService{
		clients: clients,
		scopes:  scopes,
		authz:   authz,
		devices: devices,
		tokens:  tokens,
		tx:      tx,
		metrics: metrics,
		audit:   audit,
	}
}

// Exchange runs a token request end to end.
func (s *GrantService) Exchange(ctx context.Context, req GrantRequest) (*TokenPair, error) {
	start := time.Now()

	pair, client, err := s.exchange(ctx, req)
	if err != nil {
		s.metrics.RecordGrantFailure(req.GrantType, KindOf(err).String())
		return nil, err
	}

	s.metrics.RecordTokenIssued(req.GrantType, time.Since(start))
	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventTokenIssued,
		ActorClientID: client.ID,
		ResourceType:  models.ResourceToken,
		Action:        "token issued",
		Details: models.AuditDetails{
			"grant_type": req.GrantType,
			"scope":      pair.Scopes.String(),
		},
		Success: true,
	})
	return pair, nil
}

func (s *GrantService) exchange(ctx context.Context, req GrantRequest) (*TokenPair, *models.Client, error) {
	client, err := s.clients.Authenticate(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, nil, newError(KindInvalidCredentials, "client authentication failed", nil)
		}
		return nil, nil, err
	}

	var pair *TokenPair
	switch req.GrantType {
	case GrantTypeClientCredentials:
		pair, err = s.clientCredentials(ctx, client, req.Scope)
	case GrantTypeAuthorizationCode:
		pair, err = s.authorizationCode(ctx, client, req)
	case GrantTypeDeviceCode:
		pair, err = s.deviceCode(ctx, client, req.DeviceCode)
	case GrantTypeRefreshToken:
		pair, err = s.refreshToken(ctx, client, req)
	case "":
		err = newError(KindInvalidRequest, "grant_type is required", nil)
	default:
		err = newError(KindUnsupportedGrantType, "unsupported grant_type: "+req.GrantType, nil)
	}
	if err != nil {
		return nil, nil, err
	}
	return pair, client, nil
}

// clientCredentials issues a pair with no user. Public clients cannot prove
// who they are, so they are refused.
func (s *GrantService) clientCredentials(ctx context.Context, client *models.Client, scope string) (*TokenPair, error) {
	if client.IsPublic {
		return nil, newError(KindUnauthorizedClient, "public clients may not use client_credentials", nil)
	}
	scopes, err := s.scopes.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(ctx, client.ID, "", scopes)
}

// authorizationCode consumes the code and issues in one transaction, so a
// failed issuance leaves the code redeemable.
func (s *GrantService) authorizationCode(ctx context.Context, client *models.Client, req GrantRequest) (*TokenPair, error) {
	if req.Code == "" {
		return nil, newError(KindInvalidRequest, "code is required", nil)
	}

	var pair *TokenPair
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		code, err := s.authz.Validate(ctx, client.ID, req.Code, req.CodeVerifier, req.RedirectURI)
		if err != nil {
			return err
		}
		pair, err = s.tokens.Issue(ctx, client.ID, code.UserID, code.ScopeSet())
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *GrantService) deviceCode(ctx context.Context, client *models.Client, deviceCode string) (*TokenPair, error) {
	if deviceCode == "" {
		return nil, newError(KindInvalidRequest, "device_code is required", nil)
	}
	return s.devices.Redeem(ctx, client.ID, deviceCode)
}

func (s *GrantService) refreshToken(ctx context.Context, client *models.Client, req GrantRequest) (*TokenPair, error) {
	if req.RefreshToken == "" {
		return nil, newError(KindInvalidRequest, "refresh_token is required", nil)
	}
	var requested models.ScopeSet
	if req.Scope != "" {
		var err error
		if requested, err = s.scopes.Resolve(ctx, req.Scope); err != nil {
			return nil, err
		}
	}
	return s.tokens.Refresh(ctx, client.ID, req.RefreshToken, requested)
}
