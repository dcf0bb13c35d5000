package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/core"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/store"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"
)

const responseTypeCode = "code"

// AuthorizationRequest is the query of GET /oauth/authorize.
type AuthorizationRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ValidatedAuthorization is an authorization request whose client and
// redirect URI have been checked. RedirectURI is set as soon as it is known
// to be safe, even when a later check fails, so errors can be redirected.
// RequestedRedirectURI is the value the request carried, empty when the
// client's single registered URI was used; it is what the code is bound to.
type ValidatedAuthorization struct {
	Client               *models.Client
	RedirectURI          string
	RequestedRedirectURI string
	Scopes               models.ScopeSet
	State                string
	CodeChallenge        string
	CodeChallengeMethod  models.PKCEMethod
}

// AuthorizationService runs the authorization code flow with mandatory PKCE.
type AuthorizationService struct {
	clients *ClientService
	scopes  *ScopeService
	codes   core.AuthorizationCodeRepository
	codeTTL time.Duration
	metrics core.Recorder
	audit   *AuditService
	now     func() time.Time
}

func NewAuthorizationService(
	clients *ClientService,
	scopes *ScopeService,
	codes core.AuthorizationCodeRepository,
	codeTTL time.Duration,
	metrics core.Recorder,
	audit *AuditService,
) *AuthorizationService {
	return &AuthorizationService{
		clients: clients,
		scopes:  scopes,
		codes:   codes,
		codeTTL: codeTTL,
		metrics: metrics,
		audit:   audit,
		now:     time.Now,
	}
}

// ValidateAuthorizationRequest checks an authorize request. The client and
// redirect URI are verified first; errors before that point must not be
// redirected.
func (s *AuthorizationService) ValidateAuthorizationRequest(
	ctx context.Context,
	req AuthorizationRequest,
) (*ValidatedAuthorization, error) {
	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, newError(KindInvalidRequest, "unknown client_id", nil)
		}
		return nil, err
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" && len(client.RedirectURIs) == 1 {
		redirectURI = client.RedirectURIs[0].URI
	}
	if redirectURI == "" || !client.HasRedirectURI(redirectURI) {
		return nil, newError(KindInvalidRequest, "redirect_uri is not registered for this client", nil)
	}

	v := &ValidatedAuthorization{
		Client:               client,
		RedirectURI:          redirectURI,
		RequestedRedirectURI: req.RedirectURI,
		State:                req.State,
	}

	if req.ResponseType != responseTypeCode {
		return v, newError(KindUnsupportedResponseType, "response_type must be code", nil)
	}

	if req.CodeChallenge == "" {
		return v, newError(KindInvalidRequest, "code_challenge is required", nil)
	}
	method := models.PKCEMethod(req.CodeChallengeMethod)
	if !method.Valid() {
		return v, newError(KindInvalidRequest, "code_challenge_method must be plain or S256", nil)
	}
	v.CodeChallenge = req.CodeChallenge
	v.CodeChallengeMethod = method

	scopes, err := s.scopes.Resolve(ctx, req.Scope)
	if err != nil {
		return v, err
	}
	v.Scopes = scopes
	return v, nil
}

// IssueCode stores a new single-use code and returns its plaintext.
// redirectURI is the value sent at authorize time, empty when it was omitted;
// the token request must then present the same value.
func (s *AuthorizationService) IssueCode(
	ctx context.Context,
	client *models.Client,
	userID, challenge string,
	method models.PKCEMethod,
	redirectURI string,
	scopes models.ScopeSet,
) (string, error) {
	if !method.Valid() || challenge == "" {
		return "", newError(KindInvalidRequest, "a PKCE challenge is required", nil)
	}

	raw, err := util.RandomToken(tokenBytes)
	if err != nil {
		return "", newError(KindInternal, "failed to generate authorization code", err)
	}

	now := s.now().UTC()
	code := &models.AuthorizationCode{
		CodeHash:            util.SHA256Hex(raw),
		ClientID:            client.ID,
		UserID:              userID,
		RedirectURI:         redirectURI,
		Scopes:              scopes.String(),
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(s.codeTTL),
		CreatedAt:           now,
	}
	if err := s.codes.CreateAuthorizationCode(ctx, code); err != nil {
		return "", fromStore("failed to create authorization code", err)
	}

	s.metrics.RecordAuthorizationCodeIssued()
	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthorizationCodeGenerated,
		ActorUserID:   userID,
		ActorClientID: client.ID,
		ResourceType:  models.ResourceAuthorizationCode,
		Action:        "authorization code issued",
		Details:       models.AuditDetails{"scope": code.Scopes},
		Success:       true,
	})
	return raw, nil
}

// Validate checks a presented code and its PKCE verifier, then marks the code
// used. Callers that issue tokens afterwards should run it inside the same
// transaction.
func (s *AuthorizationService) Validate(
	ctx context.Context,
	clientID, rawCode, verifier, redirectURI string,
) (*models.AuthorizationCode, error) {
	now := s.now().UTC()

	code, err := s.codes.GetAuthorizationCode(ctx, util.SHA256Hex(rawCode), clientID, now)
	if err != nil {
		s.metrics.RecordAuthorizationCodeExchange("invalid_grant")
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidGrant, "authorization code is invalid, expired or already used", nil)
		}
		return nil, fromStore("failed to load authorization code", err)
	}

	if !verifyPKCE(code.CodeChallenge, code.CodeChallengeMethod, verifier) {
		s.metrics.RecordAuthorizationCodeExchange("invalid_verifier")
		return nil, newError(KindInvalidRequest, "code_verifier does not match the code challenge", nil)
	}

	if code.RedirectURI != redirectURI {
		s.metrics.RecordAuthorizationCodeExchange("redirect_mismatch")
		return nil, newError(KindInvalidGrant, "redirect_uri does not match the authorization request", nil)
	}

	if err := s.codes.ConsumeAuthorizationCode(ctx, code.ID, now); err != nil {
		if errors.Is(err, store.ErrConsumed) {
			s.metrics.RecordAuthorizationCodeExchange("replayed")
			s.audit.Log(ctx, AuditLogEntry{
				EventType:     models.EventCredentialReplay,
				Severity:      models.SeverityCritical,
				ActorClientID: clientID,
				ResourceType:  models.ResourceAuthorizationCode,
				ResourceID:    strconv.FormatUint(uint64(code.ID), 10),
				Action:        "authorization code redeemed concurrently",
			})
			return nil, newError(KindInvalidGrant, "authorization code is invalid, expired or already used", err)
		}
		return nil, fromStore("failed to consume authorization code", err)
	}

	s.metrics.RecordAuthorizationCodeExchange("success")
	s.audit.Log(ctx, AuditLogEntry{
		EventType:     models.EventAuthorizationCodeExchanged,
		ActorUserID:   code.UserID,
		ActorClientID: clientID,
		ResourceType:  models.ResourceAuthorizationCode,
		Action:        "authorization code exchanged",
		Success:       true,
	})
	return code, nil
}

// DeleteExpired removes expired and consumed codes past their expiry.
func (s *AuthorizationService) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.codes.DeleteExpiredAuthorizationCodes(ctx, s.now().UTC())
	if err != nil {
		return 0, fromStore("failed to delete expired authorization codes", err)
	}
	return n, nil
}

func verifyPKCE(challenge string, method models.PKCEMethod, verifier string) bool {
	if verifier == "" {
		return false
	}
	var expected string
	switch method {
	case models.PKCEMethodPlain:
		expected = verifier
	case models.PKCEMethodS256:
		expected = util.S256Challenge(verifier)
	default:
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}
