package router

import (
	"github.com/andriwidi/go-session-orchestrator/internal/container"
	handlers "github.com/andriwidi/go-session-orchestrator/internal/interface/http"
	"github.com/andriwidi/go-session-orchestrator/internal/router/modules"
)

// InitModules initializes all application modules and registers them with
// the router registry. Called once during application startup.
func InitModules(r *Registry) {
	sessionHandler := handlers.NewSessionHandler(container.GetSessionManager(), container.GetLogger())
	r.Add(modules.NewSessionModule(sessionHandler))

	if cfg := container.GetConfig(); cfg != nil && cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
