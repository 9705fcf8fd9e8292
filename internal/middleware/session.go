package middleware

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	LoginPath      = "/login"
	MsgNotSignedIn = "Tu sesión expiró. Inicia sesión de nuevo."
	sessionKey     = "session"
)

// RequireSession loads the admin session named by the cookie. Requests without
// a live session get 401 and a redirect to the login page.
func RequireSession(sessions session.SessionUseCase, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			AbortUnauthorized(c, cookieName)
			return
		}
		s, err := sessions.Get(c.Request.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			AbortUnauthorized(c, cookieName)
			return
		}
		if err != nil {
			logger.Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "internal", "message": "Error interno"},
			})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// AbortUnauthorized clears the session cookie and answers 401 with a login redirect.
func AbortUnauthorized(c *gin.Context, cookieName string) {
	ClearCookie(c, cookieName)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    gin.H{"code": "unauthorized", "message": MsgNotSignedIn},
		"redirect": LoginPath,
	})
}

func ClearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", false, true)
}
