package entity

import (
	"time"
)

// Profile is this system's own persisted record about a principal, distinct
// from whatever the identity provider keeps internally. It is created exactly
// once per principal (first registration, or lazily at first federated login)
// and is read-only afterwards from the orchestrator's point of view.
type Profile struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}
