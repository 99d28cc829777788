package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-service/internal/adapter/gin/middleware"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
	pkgerrors "library-service/pkg/errors"
)

// Flash levels
const (
	flashSuccess = "success"
	flashError   = "error"
)

// base carries the session plumbing shared by all page handlers.
type base struct {
	sessions session.Store
	cookie   config.SessionConfig
	log      *zap.Logger
}

func (b *base) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(b.cookie.CookieName, token, b.cookie.TTLSeconds, "/", "", b.cookie.Secure, true)
}

func (b *base) clearSessionCookie(c *gin.Context) {
	c.SetCookie(b.cookie.CookieName, "", -1, "/", "", b.cookie.Secure, true)
}

// ensureSession returns the request's session, lazily creating an anonymous
// one so flash messages survive redirects for logged-out visitors.
func (b *base) ensureSession(c *gin.Context) *session.Session {
	if sess := middleware.CurrentSession(c); sess != nil {
		return sess
	}

	sess, err := b.sessions.Create(c.Request.Context(), 0, "")
	if err != nil {
		b.log.Error("failed to create session", zap.Error(err))
		return nil
	}

	b.setSessionCookie(c, sess.ID)
	c.Set(middleware.SessionKey, sess)
	return sess
}

// flash enqueues a one-shot message for the next rendered page.
func (b *base) flash(c *gin.Context, level, message string) {
	sess := b.ensureSession(c)
	if sess == nil {
		return
	}

	if err := b.sessions.AddFlash(c.Request.Context(), sess.ID, session.Flash{Level: level, Message: message}); err != nil {
		b.log.Warn("failed to add flash", zap.Error(err))
	}
}

// flashForError surfaces recovered errors to the user and hides internal ones
// behind a generic message.
func (b *base) flashForError(c *gin.Context, err error) {
	if pkgerrors.IsUserFacing(err) {
		b.flash(c, flashError, err.Error())
		return
	}

	b.log.Error("unexpected handler error", zap.Error(err))
	b.flash(c, flashError, "Something went wrong, please try again")
}

// render draws an HTML template with the session user and the drained flash
// queue merged into the template data.
func (b *base) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	sess := middleware.CurrentSession(c)
	if sess.Authenticated() {
		data["User"] = sess
	}
	if sess != nil {
		flashes, err := b.sessions.PopFlashes(c.Request.Context(), sess.ID)
		if err != nil {
			b.log.Warn("failed to pop flashes", zap.Error(err))
		} else if len(flashes) > 0 {
			data["Flashes"] = flashes
		}
	}

	c.HTML(status, name, data)
}
