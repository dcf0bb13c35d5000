package middleware

import (
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

// Keys under which RequireSession stores the authenticated session.
const (
	ContextUserID  = "user_id"
	ContextSession = "session"
)

// UserID returns the authenticated user id, or "" outside RequireSession.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// Session returns the authenticated session, or nil outside RequireSession.
func Session(c *gin.Context) *models.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}
