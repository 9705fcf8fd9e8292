package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/legalinmo/internal/apiclient"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/middleware"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessions     session.SessionUseCase
	cookie       CookieSettings
	loginLimiter gin.HandlerFunc
	logger       *zap.Logger
}

// NewAuthHandler serves login and logout. loginLimiter, when set, guards the
// login route only.
func NewAuthHandler(sessions session.SessionUseCase, cookie CookieSettings, loginLimiter gin.HandlerFunc, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, cookie: cookie, loginLimiter: loginLimiter, logger: logger}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	login := []gin.HandlerFunc{h.login}
	if h.loginLimiter != nil {
		login = append([]gin.HandlerFunc{h.loginLimiter}, login...)
	}
	router.POST("/login", login...)
	router.POST("/logout", h.logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      *domain.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	var upstream *apiclient.APIError
	switch {
	case err == nil:
	case errors.Is(err, session.ErrMissingFields):
		writeError(c, http.StatusUnprocessableEntity, "validation", session.MsgMissingFields)
		return
	case errors.As(err, &upstream) && upstream.Status < http.StatusInternalServerError:
		writeError(c, http.StatusUnauthorized, "login_failed", apiclient.Message(err, apiclient.MsgLoginFailed))
		return
	default:
		respondError(c, err, apiclient.MsgLoginFailed)
		return
	}

	cookie := h.cookie
	if ttl := time.Until(s.ExpiresAt); ttl > 0 && ttl < cookie.TTL {
		cookie.TTL = ttl
	}
	cookie.set(c, s.ID)
	h.logger.Info("admin signed in", zap.String("session_id", s.ID))
	c.JSON(http.StatusOK, loginResponse{User: s.User, ExpiresAt: s.ExpiresAt})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if id, err := c.Cookie(h.cookie.Name); err == nil && id != "" {
		if err := h.sessions.Logout(c.Request.Context(), id); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	middleware.ClearCookie(c, h.cookie.Name)
	c.Status(http.StatusNoContent)
}
