package middleware

import (
	"context"
	"net/http"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cookie names set by POST /api/sessions.
const (
	SessionCookie   = "session"
	SessionIDCookie = "s_id"
	UserIDCookie    = "u_id"
)

// SessionVerifier resolves a signed session cookie to a live session.
type SessionVerifier interface {
	VerifyCookie(ctx context.Context, raw string) (*models.Session, error)
}

// RequireSession rejects requests without a valid session cookie and stores
// the session in the gin context for handlers.
func RequireSession(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			abortUnauthorized(c, "session cookie required")
			return
		}

		session, err := verifier.VerifyCookie(c.Request.Context(), raw)
		if err != nil {
			if services.KindOf(err) == services.KindInternal {
				zap.L().Error("failed to verify session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "failed to verify session",
				})
				return
			}
			abortUnauthorized(c, "invalid or expired session")
			return
		}

		c.Set(ContextUserID, session.UserID)
		c.Set(ContextSession, session)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": description,
	})
}
