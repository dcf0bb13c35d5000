package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// DeviceHandler serves both sides of the device authorization grant: the
// device requesting codes and the signed-in user resolving them.
type DeviceHandler struct {
	devices *services.DeviceService
	clients *services.ClientService
	scopes  *services.ScopeService
}

func NewDeviceHandler(
	ds *services.DeviceService,
	cs *services.ClientService,
	ss *services.ScopeService,
) *DeviceHandler {
	return &DeviceHandler{devices: ds, clients: cs, scopes: ss}
}

type deviceAuthorizationResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// DeviceAuthorization starts a device flow (RFC 8628 §3.1).
//
//	POST /oauth/device_authorization
func (h *DeviceHandler) DeviceAuthorization(c *gin.Context) {
	ctx := c.Request.Context()

	creds, err := ExtractClientCredentials(c.Request)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	client, err := h.clients.Authenticate(ctx, creds.ID, creds.Secret)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			err = &services.Error{Kind: services.KindInvalidCredentials, Message: "client authentication failed"}
		}
		respondError(c, err)
		return
	}

	scopes, err := h.scopes.Resolve(ctx, c.PostForm("scope"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.devices.Create(ctx, client, scopes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, deviceAuthorizationResponse{
		DeviceCode:              resp.DeviceCode,
		UserCode:                resp.UserCode,
		VerificationURI:         resp.VerificationURI,
		VerificationURIComplete: resp.VerificationURIComplete,
		ExpiresIn:               resp.ExpiresIn,
		Interval:                resp.Interval,
	})
}

// Lookup shows the user what a code would grant before they decide.
//
//	GET /api/device?user_code=...
func (h *DeviceHandler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()

	userCode := c.Query("user_code")
	if userCode == "" {
		badRequest(c, "user_code is required")
		return
	}

	auth, err := h.devices.Lookup(ctx, userCode)
	if err != nil {
		respondError(c, err)
		return
	}
	client, err := h.clients.Get(ctx, auth.ClientID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_code":   services.FormatUserCode(auth.UserCode),
		"client_id":   client.ID,
		"client_name": client.Name,
		"scope":       auth.Scopes,
		"expires_at":  auth.ExpiresAt,
	})
}

type userCodeRequest struct {
	UserCode string `json:"user_code" binding:"required"`
}

// Approve grants the pending authorization to the signed-in user.
//
//	POST /api/device/approve
func (h *DeviceHandler) Approve(c *gin.Context) {
	h.resolve(c, h.devices.Approve)
}

// Deny rejects the pending authorization.
//
//	POST /api/device/deny
func (h *DeviceHandler) Deny(c *gin.Context) {
	h.resolve(c, h.devices.Deny)
}

func (h *DeviceHandler) resolve(
	c *gin.Context,
	decide func(ctx context.Context, userCode, userID string) error,
) {
	var req userCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserCode) == "" {
		badRequest(c, "user_code is required")
		return
	}

	if err := decide(c.Request.Context(), req.UserCode, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
