package identity

import "context"

// Principal is the provider's representation of an authenticated entity.
// DisplayName and Email are optional; federated sign-ins may leave either
// empty on first use.
type Principal struct {
	ID          string
	DisplayName string
	Email       string
}

// FederatedKind names a third-party identity service for federated login.
type FederatedKind string

const (
	FederatedGoogle FederatedKind = "google"
)

// Callback receives auth state notifications. A nil principal means the
// provider no longer reports anyone as authenticated.
type Callback func(p *Principal)

// Subscription is the handle returned by Subscribe. Unsubscribe releases the
// underlying stream and must be safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// Provider is the external identity provider as seen by the orchestrator.
// All calls are network-bound and may fail with an *Error carrying one of
// the kinds in errors.go; the orchestrator treats every failure as opaque
// except for logging.
type Provider interface {
	// CreateAccount registers a new principal with email/password credentials.
	CreateAccount(ctx context.Context, email, password string) (*Principal, error)

	// SignIn authenticates an existing principal with email/password.
	SignIn(ctx context.Context, email, password string) (*Principal, error)

	// SignInFederated drives the provider-specific federated handshake.
	SignInFederated(ctx context.Context, kind FederatedKind) (*Principal, error)

	// SignOut ends the provider-side session.
	SignOut(ctx context.Context) error

	// UpdateDisplayName sets the provider-side profile display name.
	UpdateDisplayName(ctx context.Context, principalID, name string) error

	// Subscribe registers cb on the provider's auth state notification
	// stream. The stream delivers one notification for the state current at
	// subscription time, then one per state change, until the subscription
	// is released. Notifications for one subscriber arrive in order.
	Subscribe(cb Callback) (Subscription, error)
}
