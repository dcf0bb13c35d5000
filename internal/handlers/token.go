package handlers

import (
	"errors"
	"net/http"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	grants  *services.GrantService
	tokens  *services.TokenService
	clients *services.ClientService
}

func NewTokenHandler(
	grants *services.GrantService,
	tokens *services.TokenService,
	clients *services.ClientService,
) *TokenHandler {
	return &TokenHandler{grants: grants, tokens: tokens, clients: clients}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token exchanges a grant for a token pair (RFC 6749 §3.2, RFC 8628 §3.4).
//
//	POST /oauth/token
func (h *TokenHandler) Token(c *gin.Context) {
	creds, err := ExtractClientCredentials(c.Request)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	pair, err := h.grants.Exchange(c.Request.Context(), services.GrantRequest{
		GrantType:    c.PostForm("grant_type"),
		ClientID:     creds.ID,
		ClientSecret: creds.Secret,
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		CodeVerifier: c.PostForm("code_verifier"),
		DeviceCode:   c.PostForm("device_code"),
		RefreshToken: c.PostForm("refresh_token"),
		Scope:        c.PostForm("scope"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
		Scope:        pair.Scopes.String(),
	})
}

// Revoke implements RFC 7009. Unknown tokens still answer 200.
//
//	POST /oauth/revoke
func (h *TokenHandler) Revoke(c *gin.Context) {
	client, ok := h.authenticate(c)
	if !ok {
		return
	}

	err := h.tokens.Revoke(
		c.Request.Context(),
		client.ID,
		c.PostForm("token"),
		c.PostForm("token_type_hint"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Introspect implements RFC 7662. Tokens issued to other clients are reported
// inactive.
//
//	POST /oauth/introspect
func (h *TokenHandler) Introspect(c *gin.Context) {
	client, ok := h.authenticate(c)
	if !ok {
		return
	}

	info, err := h.tokens.Introspect(c.Request.Context(), c.PostForm("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	if !info.Active || info.ClientID != client.ID {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	body := gin.H{
		"active":     true,
		"client_id":  info.ClientID,
		"scope":      info.Scopes.String(),
		"token_type": info.TokenType,
		"iat":        info.IssuedAt.Unix(),
		"exp":        info.ExpiresAt.Unix(),
	}
	if info.UserID != "" {
		body["sub"] = info.UserID
	}
	c.JSON(http.StatusOK, body)
}

// authenticate resolves the calling client or writes the error response.
func (h *TokenHandler) authenticate(c *gin.Context) (*models.Client, bool) {
	creds, err := ExtractClientCredentials(c.Request)
	if err != nil {
		badRequest(c, err.Error())
		return nil, false
	}

	client, err := h.clients.Authenticate(c.Request.Context(), creds.ID, creds.Secret)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			err = &services.Error{Kind: services.KindInvalidCredentials, Message: "client authentication failed"}
		}
		respondError(c, err)
		return nil, false
	}
	return client, true
}
