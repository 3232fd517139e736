package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andriwidi/go-session-orchestrator/internal/container"
	handlers "github.com/andriwidi/go-session-orchestrator/internal/interface/http"
	"github.com/andriwidi/go-session-orchestrator/internal/interface/middleware"
)

// SessionModule wires the session endpoints.
// Public: GET /api/session
// Credential ops: POST /api/session/{register,login,login/google,logout}
type SessionModule struct {
	Handler *handlers.SessionHandler
}

func NewSessionModule(h *handlers.SessionHandler) *SessionModule {
	return &SessionModule{Handler: h}
}

func (m *SessionModule) Register(rg *gin.RouterGroup) {
	// Credential endpoints carry per-IP limits; snapshot reads are cheap
	// and stay unlimited.
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/session", m.Handler.Get)
	rg.POST("/session/register", registerLimiter, m.Handler.Register)
	rg.POST("/session/login", loginLimiter, m.Handler.Login)
	rg.POST("/session/login/google", loginLimiter, m.Handler.LoginGoogle)
	rg.POST("/session/logout", m.Handler.Logout)
}
