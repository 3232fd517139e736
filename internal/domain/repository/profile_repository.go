package repository

import (
	"context"
	"errors"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
)

// ErrNotFound is returned by Get when no profile document exists for the id.
var ErrNotFound = errors.New("profile not found")

// ProfileRepository defines the document-store operations the orchestrator
// needs: one keyed read and one keyed create. Profiles are never updated or
// deleted through this interface.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (*entity.Profile, error)
	Create(ctx context.Context, p *entity.Profile) error
}
