package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-service/internal/adapter/session"
	"library-service/pkg/logger"
)

// SessionKey is the gin context key the loaded session is stored under.
const SessionKey = "session"

// Sessions loads the session referenced by the request cookie, if any, and
// makes it available to handlers via CurrentSession.
func Sessions(store session.Store, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := store.Get(c.Request.Context(), token)
		if err != nil {
			// Treat a session-store outage as an anonymous request
			log.Warn("failed to load session", zap.Error(err))
			c.Next()
			return
		}
		if sess == nil {
			c.Next()
			return
		}

		c.Set(SessionKey, sess)

		if sess.Authenticated() {
			ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, sess.UserID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// CurrentSession returns the session loaded for this request, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	sess, ok := v.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// RequireAuth redirects unauthenticated requests to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated() {
			c.Redirect(http.StatusFound, "/login/")
			c.Abort()
			return
		}
		c.Next()
	}
}
