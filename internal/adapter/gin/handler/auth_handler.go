package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-service/internal/adapter/gin/middleware"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
	"library-service/internal/usecase/auth"
)

// AuthHandler serves the login, register and logout pages.
type AuthHandler struct {
	base
	uc auth.Service
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(uc auth.Service, sessions session.Store, cookie config.SessionConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		base: base{sessions: sessions, cookie: cookie, log: log},
		uc:   uc,
	}
}

// LoginForm represents the credential form fields.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// RegisterForm represents the account-creation form fields.
type RegisterForm struct {
	FirstName string `form:"first_name" binding:"required"`
	LastName  string `form:"last_name" binding:"required"`
	Username  string `form:"username" binding:"required"`
	Email     string `form:"email" binding:"required,email"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
}

// ShowLogin handles GET /login/
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Username": ""})
}

// Login handles POST /login/
func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("invalid login form", zap.Error(err))
		h.render(c, http.StatusOK, "login.html", gin.H{
			"FormError": "Username and password are required",
			"Username":  form.Username,
		})
		return
	}

	u, err := h.uc.Login(c.Request.Context(), auth.LoginRequest{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		h.flashForError(c, err)
		h.render(c, http.StatusOK, "login.html", gin.H{"Username": form.Username})
		return
	}

	// Rotate the session token on login
	if old := middleware.CurrentSession(c); old != nil {
		if err := h.sessions.Delete(c.Request.Context(), old.ID); err != nil {
			h.log.Warn("failed to delete pre-login session", zap.Error(err))
		}
	}

	sess, err := h.sessions.Create(c.Request.Context(), u.ID, u.Username)
	if err != nil {
		h.log.Error("failed to create session after login", zap.Error(err))
		h.render(c, http.StatusOK, "login.html", gin.H{"FormError": "Something went wrong, please try again"})
		return
	}
	h.setSessionCookie(c, sess.ID)

	c.Redirect(http.StatusFound, "/")
}

// ShowRegister handles GET /register/
func (h *AuthHandler) ShowRegister(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"Form": RegisterForm{}})
}

// Register handles POST /register/
func (h *AuthHandler) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Warn("invalid register form", zap.Error(err))
		h.render(c, http.StatusOK, "register.html", gin.H{
			"FormError": "All fields are required and the email must be valid",
			"Form":      form,
		})
		return
	}

	err := h.uc.Register(c.Request.Context(), auth.RegisterRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Username:  form.Username,
		Email:     form.Email,
		Password1: form.Password1,
		Password2: form.Password2,
	})
	if err != nil {
		h.flashForError(c, err)
		h.render(c, http.StatusOK, "register.html", gin.H{"Form": form})
		return
	}

	h.flash(c, flashSuccess, "Registration successful")
	c.Redirect(http.StatusFound, "/login/")
}

// Logout handles GET /logout. It is idempotent: logging out without a
// session is still a redirect home.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess := middleware.CurrentSession(c); sess != nil {
		if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
			h.log.Warn("failed to delete session on logout", zap.Error(err))
		}
	}
	h.clearSessionCookie(c)

	c.Redirect(http.StatusFound, "/")
}
