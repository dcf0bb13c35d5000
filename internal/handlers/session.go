package handlers

import (
	"net/http"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// SessionHandler runs first-party login: password login yields a single-use
// session token, which is exchanged for a session carried in cookies.
type SessionHandler struct {
	users         *services.UserService
	sessions      *services.SessionService
	secureCookies bool
}

func NewSessionHandler(us *services.UserService, ss *services.SessionService, secureCookies bool) *SessionHandler {
	return &SessionHandler{users: us, sessions: ss, secureCookies: secureCookies}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks a username and password and returns a session token.
//
//	POST /api/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindInvalidCredentials {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "invalid_credentials",
				"error_description": "invalid username or password",
			})
			return
		}
		respondError(c, err)
		return
	}

	issued, err := h.sessions.IssueSessionToken(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"session_token": issued.Token,
		"user_id":       issued.UserID,
		"expires_at":    issued.ExpiresAt,
	})
}

type createSessionRequest struct {
	SessionToken string `json:"session_token" binding:"required"`
}

// CreateSession exchanges a session token for a session and sets the
// session cookies.
//
//	POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "session_token is required")
		return
	}

	session, err := h.sessions.CreateSession(c.Request.Context(), req.SessionToken)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.setSessionCookies(c, session) {
		return
	}
	c.JSON(http.StatusCreated, sessionBody(session))
}

// GetSession returns the current session.
//
//	GET /api/sessions
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionBody(middleware.Session(c)))
}

// RefreshSession extends the current session and reissues its cookies.
//
//	PUT /api/sessions
func (h *SessionHandler) RefreshSession(c *gin.Context) {
	current := middleware.Session(c)
	session, err := h.sessions.UpdateSession(c.Request.Context(), current.UserID, current.ID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.setSessionCookies(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionBody(session))
}

// DeleteSession logs the user out and clears the cookies.
//
//	DELETE /api/sessions
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.DeleteSession(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	for _, name := range []string{middleware.SessionCookie, middleware.SessionIDCookie, middleware.UserIDCookie} {
		h.setCookie(c, name, "", -1)
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) setSessionCookies(c *gin.Context, session *models.Session) bool {
	signed, err := h.sessions.SignCookie(session)
	if err != nil {
		respondError(c, err)
		return false
	}

	maxAge := int(time.Until(session.ExpiresAt) / time.Second)
	h.setCookie(c, middleware.SessionCookie, signed, maxAge)
	h.setCookie(c, middleware.SessionIDCookie, session.ID, maxAge)
	h.setCookie(c, middleware.UserIDCookie, session.UserID, maxAge)
	return true
}

func (h *SessionHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func sessionBody(session *models.Session) gin.H {
	return gin.H{
		"user_id":    session.UserID,
		"expires_at": session.ExpiresAt,
		"created_at": session.CreatedAt,
	}
}
