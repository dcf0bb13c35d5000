package handlers

import (
	"net/http"
	"net/url"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

const maxStateLength = 1024

// AuthorizationHandler serves the authorization endpoint of the
// authorization code flow. The user must already hold a session.
type AuthorizationHandler struct {
	authorizations *services.AuthorizationService
}

func NewAuthorizationHandler(as *services.AuthorizationService) *AuthorizationHandler {
	return &AuthorizationHandler{authorizations: as}
}

// Authorize validates the request and redirects back to the client with a
// code. Errors found before the redirect URI is trusted are answered
// directly; later errors are redirected (RFC 6749 §4.1.2.1).
//
//	GET /oauth/authorize
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	ctx := c.Request.Context()
	state := c.Query("state")

	req, err := h.authorizations.ValidateAuthorizationRequest(ctx, services.AuthorizationRequest{
		ResponseType:        c.Query("response_type"),
		ClientID:            c.Query("client_id"),
		RedirectURI:         c.Query("redirect_uri"),
		Scope:               c.Query("scope"),
		State:               state,
		CodeChallenge:       c.Query("code_challenge"),
		CodeChallengeMethod: c.Query("code_challenge_method"),
	})
	if err != nil {
		if req == nil || req.RedirectURI == "" {
			respondError(c, err)
			return
		}
		redirectError(c, req.RedirectURI, state, err)
		return
	}

	if len(state) > maxStateLength {
		redirectError(c, req.RedirectURI, "", &services.Error{
			Kind:    services.KindInvalidRequest,
			Message: "state parameter exceeds maximum length",
		})
		return
	}

	code, err := h.authorizations.IssueCode(
		ctx,
		req.Client,
		middleware.UserID(c),
		req.CodeChallenge,
		req.CodeChallengeMethod,
		req.RequestedRedirectURI,
		req.Scopes,
	)
	if err != nil {
		redirectError(c, req.RedirectURI, state, err)
		return
	}

	location, err := util.AppendQuery(req.RedirectURI, url.Values{
		"code":  {code},
		"state": {state},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}
