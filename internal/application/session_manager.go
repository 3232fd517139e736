package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	repo "github.com/andriwidi/go-session-orchestrator/internal/domain/repository"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
	"github.com/andriwidi/go-session-orchestrator/pkg/mailer"
)

var ErrAlreadyStarted = errors.New("session manager already started")

// defaultDisplayName is used when a federated provider reports no display
// name for a principal that has no profile document yet.
const defaultDisplayName = "User"

// SessionManager owns the process-wide session: the current resolved user,
// the loading flag, and the provider subscription that keeps both in sync
// with the identity provider. Credential operations never return errors to
// callers; failures are logged with their kind and collapsed into a boolean.
//
// Redis, ES and Pub are optional side channels; each is nil-guarded and
// best-effort. Only Provider, Profiles and Logger are required.
type SessionManager struct {
	Provider identity.Provider
	Profiles repo.ProfileRepository
	Logger   *logrus.Logger

	Redis         *redis.Client
	ES            *elasticsearch.Client
	ESEventsIndex string
	Pub           *helpers.RabbitPublisher
	MailEnabled   bool

	mu      sync.Mutex
	user    *entity.SessionUser
	loading bool
	state   entity.SessionState
	started bool
	sub     identity.Subscription
}

func NewSessionManager(provider identity.Provider, profiles repo.ProfileRepository, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		Provider: provider,
		Profiles: profiles,
		Logger:   logger,
		loading:  true,
		state:    entity.StateUnresolved,
	}
}

// Start establishes the provider subscription. It must be called exactly
// once per process; a second call returns ErrAlreadyStarted.
func (m *SessionManager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	sub, err := m.Provider.Subscribe(m.onAuthStateChanged)
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// Close releases the provider subscription. Safe to call more than once.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Snapshot returns a copy of the current session state. User, state and
// the loading flag always move in one critical section.
func (m *SessionManager) Snapshot() entity.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var u *entity.SessionUser
	if m.user != nil {
		cp := *m.user
		u = &cp
	}
	return entity.SessionSnapshot{User: u, Loading: m.loading, State: m.state}
}

// onAuthStateChanged is the change listener: the sole path that derives
// session state from provider notifications, and the only one that can ever
// produce the anonymous state apart from an explicit logout.
func (m *SessionManager) onAuthStateChanged(p *identity.Principal) {
	ctx := context.Background()
	if p == nil {
		m.setAnonymous(ctx)
		return
	}
	name := m.resolveDisplayName(ctx, p)
	m.setAuthenticated(ctx, &entity.SessionUser{ID: p.ID, Name: name, Email: p.Email})
}

// Register creates an account, persists the profile document, and sets the
// session optimistically from the inputs so the caller never sees an
// unauthenticated flash while the listener catches up.
func (m *SessionManager) Register(ctx context.Context, name, email, password string) bool {
	m.setLoading(true)
	defer m.setLoading(false)

	p, err := m.Provider.CreateAccount(ctx, email, password)
	if err != nil {
		m.logFailure("register", err)
		return false
	}

	// Best-effort: the account already exists, a missing provider-side
	// display name is recovered by the profile document fallback.
	if err := m.Provider.UpdateDisplayName(ctx, p.ID, name); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("principal_id", p.ID).Warn("display name update failed")
	}

	doc := &entity.Profile{ID: p.ID, Name: name, Email: email, CreatedAt: time.Now().UTC()}
	if err := m.Profiles.Create(ctx, doc); err != nil {
		m.logFailure("register", identity.NewError(identity.KindProfileSync, "profiles.create", err))
		return false
	}

	m.setAuthenticated(ctx, &entity.SessionUser{ID: p.ID, Name: name, Email: email})
	m.publishEmail(ctx, mailer.EmailJob{To: email, Template: "welcome", Data: map[string]any{"Name": name, "Email": email}})
	m.indexEvent(ctx, "register", p.ID)
	return true
}

// Login authenticates with email/password. The session store is not written
// here; the listener observes the provider's resulting state and resolves it.
func (m *SessionManager) Login(ctx context.Context, email, password string) bool {
	m.setLoading(true)
	defer m.setLoading(false)

	p, err := m.Provider.SignIn(ctx, email, password)
	if err != nil {
		m.logFailure("login", err)
		return false
	}

	m.publishEmail(ctx, mailer.EmailJob{To: email, Template: "login_notification", Data: map[string]any{"Email": email}})
	m.indexEvent(ctx, "login", p.ID)
	return true
}

// LoginFederated drives the interactive federated handshake, then lazily
// creates the profile document so the next resolution converges to a
// non-empty display name. The listener performs the state transition.
func (m *SessionManager) LoginFederated(ctx context.Context, kind identity.FederatedKind) bool {
	m.setLoading(true)
	defer m.setLoading(false)

	p, err := m.Provider.SignInFederated(ctx, kind)
	if err != nil {
		m.logFailure("federated login", err)
		return false
	}

	if err := m.ensureProfile(ctx, p); err != nil {
		m.logFailure("federated login", identity.NewError(identity.KindProfileSync, "profiles.ensure", err))
		return false
	}

	m.indexEvent(ctx, "login_federated", p.ID)
	return true
}

// Logout signs out on the provider and clears the session directly rather
// than waiting for the listener. A failed sign-out leaves the session
// untouched: the provider still considers the user authenticated.
func (m *SessionManager) Logout(ctx context.Context) bool {
	m.mu.Lock()
	prev := m.user
	m.mu.Unlock()

	if err := m.Provider.SignOut(ctx); err != nil {
		m.logFailure("logout", err)
		return false
	}

	m.setAnonymous(ctx)
	if prev != nil {
		m.indexEvent(ctx, "logout", prev.ID)
	}
	return true
}

func (m *SessionManager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *SessionManager) setAuthenticated(ctx context.Context, u *entity.SessionUser) {
	m.mu.Lock()
	m.user = u
	m.state = entity.StateAuthenticated
	m.loading = false
	m.mu.Unlock()

	m.mirror(ctx, u)
}

func (m *SessionManager) setAnonymous(ctx context.Context) {
	m.mu.Lock()
	m.user = nil
	m.state = entity.StateAnonymous
	m.loading = false
	m.mu.Unlock()

	m.clearMirror(ctx)
}

func (m *SessionManager) logFailure(op string, err error) {
	if m.Logger == nil {
		return
	}
	m.Logger.WithError(err).WithField("kind", string(identity.KindOf(err))).Errorf("%s failed", op)
}
