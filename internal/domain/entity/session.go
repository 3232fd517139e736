package entity

// SessionUser is the resolved, application-facing representation of the
// current principal. ID is assigned by the identity provider and never
// reused across distinct principals. Name may be empty only while a freshly
// federated principal has no profile document yet.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionState tracks the lifecycle of the process-wide session.
type SessionState int

const (
	// StateUnresolved is the initial state: the provider has not yet
	// reported whether a principal is authenticated.
	StateUnresolved SessionState = iota
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// SessionSnapshot is the read-only view handed to consumers. User is nil
// unless State is StateAuthenticated. Consumers must not render dependent
// content while Loading is true.
type SessionSnapshot struct {
	User    *SessionUser `json:"user"`
	Loading bool         `json:"loading"`
	State   SessionState `json:"-"`
}
