// Package devidp is an embedded identity provider for local development and
// tests. Accounts live in memory, passwords are bcrypt-hashed, and auth
// state notifications are delivered asynchronously in order, mimicking the
// remote provider's stream closely enough for the orchestrator not to care.
package devidp

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
)

const minPasswordLen = 8

type account struct {
	id          string
	email       string
	hash        string
	displayName string
	federated   bool
}

func (a *account) principal() *identity.Principal {
	return &identity.Principal{ID: a.id, DisplayName: a.displayName, Email: a.email}
}

type Provider struct {
	Logger *logrus.Logger

	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	byID      map[string]*account
	current   *identity.Principal
	subs      map[int]*subscription
	nextSubID int
	federated *account // seeded identity returned by the google handshake
}

func New(logger *logrus.Logger) *Provider {
	return &Provider{
		Logger:   logger,
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
		subs:     make(map[int]*subscription),
	}
}

// Seed pre-registers a password account, for local development logins.
func (p *Provider) Seed(email, password, displayName string) error {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return errors.New("email already seeded")
	}
	a := &account{id: uuid.NewString(), email: email, hash: hash, displayName: displayName}
	p.accounts[email] = a
	p.byID[a.id] = a
	return nil
}

// SeedFederated configures the identity the google handshake will return.
// An empty displayName simulates a federated provider that reports none.
func (p *Provider) SeedFederated(email, displayName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[email]
	if !ok {
		a = &account{id: uuid.NewString(), email: email, federated: true}
		p.accounts[email] = a
		p.byID[a.id] = a
	}
	a.displayName = displayName
	p.federated = a
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*identity.Principal, error) {
	if len(password) < minPasswordLen {
		return nil, identity.NewError(identity.KindCredential, "devidp.create_account", errors.New("password rejected by policy"))
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, identity.NewError(identity.KindUnavailable, "devidp.create_account", err)
	}

	p.mu.Lock()
	if _, ok := p.accounts[email]; ok {
		p.mu.Unlock()
		return nil, identity.NewError(identity.KindCredential, "devidp.create_account", errors.New("email already registered"))
	}
	a := &account{id: uuid.NewString(), email: email, hash: hash}
	p.accounts[email] = a
	p.byID[a.id] = a
	pr := a.principal()
	p.setCurrentLocked(pr)
	p.mu.Unlock()

	return pr, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	p.mu.Lock()
	a, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok || a.federated || !helpers.CompareHashAndPassword(a.hash, password) {
		return nil, identity.NewError(identity.KindCredential, "devidp.sign_in", errors.New("wrong email or password"))
	}

	p.mu.Lock()
	pr := a.principal()
	p.setCurrentLocked(pr)
	p.mu.Unlock()
	return pr, nil
}

func (p *Provider) SignInFederated(ctx context.Context, kind identity.FederatedKind) (*identity.Principal, error) {
	if kind != identity.FederatedGoogle {
		return nil, identity.NewError(identity.KindFederated, "devidp.sign_in_federated", errors.New("unsupported federated provider"))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.federated == nil {
		return nil, identity.NewError(identity.KindFederated, "devidp.sign_in_federated", errors.New("no federated identity seeded"))
	}
	pr := p.federated.principal()
	p.setCurrentLocked(pr)
	return pr, nil
}

// SignOut clears the current principal. Signing out with no active session
// is a no-op success, matching the remote provider.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	p.setCurrentLocked(nil)
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, principalID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byID[principalID]
	if !ok {
		return identity.NewError(identity.KindProfileSync, "devidp.update_display_name", errors.New("unknown principal"))
	}
	a.displayName = name
	if p.current != nil && p.current.ID == principalID {
		p.current = a.principal()
	}
	return nil
}

func (p *Provider) Subscribe(cb identity.Callback) (identity.Subscription, error) {
	s := &subscription{p: p, cb: cb, ch: make(chan notification, 16)}

	p.mu.Lock()
	s.id = p.nextSubID
	p.nextSubID++
	p.subs[s.id] = s
	s.push(p.current, p.Logger)
	p.mu.Unlock()

	go s.dispatch()
	return s, nil
}

// setCurrentLocked records the new auth state and fans it out. Callers hold
// p.mu; pushes are non-blocking so a slow subscriber cannot stall sign-in.
func (p *Provider) setCurrentLocked(pr *identity.Principal) {
	p.current = pr
	for _, s := range p.subs {
		s.push(pr, p.Logger)
	}
}

var _ identity.Provider = (*Provider)(nil)
