package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/andriwidi/go-session-orchestrator/internal/application"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/pkg/response"
	"github.com/andriwidi/go-session-orchestrator/pkg/validation"
)

// SessionHandler exposes the session object and the four credential
// operations to the presentation layer. Operation outcomes cross this
// boundary as booleans only; no structured error detail is leaked.
type SessionHandler struct {
	Manager *application.SessionManager
	Logger  *logrus.Logger
}

func NewSessionHandler(mgr *application.SessionManager, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{Manager: mgr, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Get GET /api/session
func (h *SessionHandler) Get(c *gin.Context) {
	snap := h.Manager.Snapshot()
	response.Success(c, http.StatusOK, gin.H{
		"user":    snap.User,
		"loading": snap.Loading,
		"state":   snap.State.String(),
	}, "session")
}

// Register POST /api/session/register
func (h *SessionHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !h.Manager.Register(c.Request.Context(), req.Name, req.Email, req.Password) {
		response.Error[any](c, http.StatusUnprocessableEntity, "registration failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "registered")
}

// Login POST /api/session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !h.Manager.Login(c.Request.Context(), req.Email, req.Password) {
		response.Error[any](c, http.StatusUnauthorized, "login failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "login successful")
}

// LoginGoogle POST /api/session/login/google
func (h *SessionHandler) LoginGoogle(c *gin.Context) {
	if !h.Manager.LoginFederated(c.Request.Context(), identity.FederatedGoogle) {
		response.Error[any](c, http.StatusUnauthorized, "google login failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "login successful")
}

// Logout POST /api/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	if !h.Manager.Logout(c.Request.Context()) {
		response.Error[any](c, http.StatusBadGateway, "logout failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ok": true}, "logged out")
}
