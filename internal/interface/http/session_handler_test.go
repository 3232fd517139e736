package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/andriwidi/go-session-orchestrator/internal/application"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
	repo "github.com/andriwidi/go-session-orchestrator/internal/domain/repository"
	"github.com/andriwidi/go-session-orchestrator/internal/infrastructure/identity/devidp"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
	"github.com/andriwidi/go-session-orchestrator/pkg/validation"
)

// memProfiles is a minimal in-memory ProfileRepository for handler tests.
type memProfiles struct {
	mu   sync.Mutex
	docs map[string]*entity.Profile
}

func (m *memProfiles) Get(ctx context.Context, id string) (*entity.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Create(ctx context.Context, p *entity.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.docs[p.ID] = &cp
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *application.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := helpers.NewLogger("handler-test", "development")
	provider := devidp.New(logger)
	mgr := application.NewSessionManager(provider, &memProfiles{docs: map[string]*entity.Profile{}}, logger)
	require.NoError(t, mgr.Start())
	t.Cleanup(mgr.Close)

	// Consumers never act on an unresolved session; wait for the initial
	// notification to settle before driving requests.
	require.Eventually(t, func() bool { return !mgr.Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)

	h := NewSessionHandler(mgr, logger)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/session", h.Get)
	api.POST("/session/register", h.Register)
	api.POST("/session/login", h.Login)
	api.POST("/session/logout", h.Logout)
	return r, mgr
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRegisterThenSessionShowsUserImmediately(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/session/register",
		`{"name":"Grace","email":"grace@example.com","password":"validpass1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := sessionData(t, w)
	require.Equal(t, false, data["loading"])
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Grace", user["name"])
	require.Equal(t, "grace@example.com", user["email"])
}

func TestRegisterInvalidPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/session/register",
		`{"name":"Grace","email":"not-an-email","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "email")
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/session/login",
		`{"email":"nobody@example.com","password":"whatever1"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginResolvesSession(t *testing.T) {
	r, mgr := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/session/register",
		`{"name":"Grace","email":"grace@example.com","password":"validpass1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/session/login",
		`{"email":"grace@example.com","password":"validpass1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Login does not write the state itself; the listener does.
	require.Eventually(t, func() bool {
		snap := mgr.Snapshot()
		return snap.User != nil && snap.User.Name == "Grace"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogoutTwice(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/session", "")
	data := sessionData(t, w)
	require.Equal(t, "anonymous", data["state"])
	require.Nil(t, data["user"])
}
