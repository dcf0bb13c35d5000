package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errServerError    = "server_error"
	errInvalidClient  = "invalid_client"
	errInvalidRequest = "invalid_request"

	basicRealm = `Basic realm="lockrs"`
)

type protocolError struct {
	status int
	code   string
}

// protocolErrors maps service kinds to RFC 6749 / RFC 8628 error responses.
// Kinds not listed are server errors.
var protocolErrors = map[services.Kind]protocolError{
	services.KindNotFound:                {http.StatusNotFound, "not_found"},
	services.KindAlreadyExists:           {http.StatusConflict, "already_exists"},
	services.KindInvalidCredentials:      {http.StatusUnauthorized, errInvalidClient},
	services.KindInvalidGrant:            {http.StatusBadRequest, "invalid_grant"},
	services.KindInvalidScope:            {http.StatusBadRequest, "invalid_scope"},
	services.KindExpiredOrUsed:           {http.StatusBadRequest, "expired_token"},
	services.KindInvalidRequest:          {http.StatusBadRequest, errInvalidRequest},
	services.KindInvalidToken:            {http.StatusUnauthorized, "invalid_token"},
	services.KindUnsupportedGrantType:    {http.StatusBadRequest, "unsupported_grant_type"},
	services.KindUnsupportedResponseType: {http.StatusBadRequest, "unsupported_response_type"},
	services.KindUnauthorizedClient:      {http.StatusBadRequest, "unauthorized_client"},
	services.KindAuthorizationPending:    {http.StatusBadRequest, "authorization_pending"},
	services.KindSlowDown:                {http.StatusBadRequest, "slow_down"},
	services.KindAccessDenied:            {http.StatusBadRequest, "access_denied"},
}

// describe returns the status, error code and client-safe description for err.
// Internal failures are logged here and never described to the caller.
func describe(c *gin.Context, err error) (int, string, string) {
	pe, ok := protocolErrors[services.KindOf(err)]
	if !ok {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		return http.StatusInternalServerError, errServerError, "internal server error"
	}

	description := pe.code
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		description = se.Message
	}
	return pe.status, pe.code, description
}

// respondError writes err as an OAuth JSON error body.
func respondError(c *gin.Context, err error) {
	status, code, description := describe(c, err)
	if code == errInvalidClient {
		c.Header("WWW-Authenticate", basicRealm)
	}
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// redirectError sends err back to a redirect URI that has already been
// validated for the client.
func redirectError(c *gin.Context, redirectURI, state string, err error) {
	_, code, description := describe(c, err)

	params := url.Values{
		"error":             {code},
		"error_description": {description},
	}
	if state != "" {
		params.Set("state", state)
	}

	location, buildErr := util.AppendQuery(redirectURI, params)
	if buildErr != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

func badRequest(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":             errInvalidRequest,
		"error_description": description,
	})
}
