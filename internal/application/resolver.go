package application

import (
	"context"
	"errors"
	"time"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	repo "github.com/andriwidi/go-session-orchestrator/internal/domain/repository"
)

// resolveDisplayName determines the display name for a principal: the
// provider's own field when set, otherwise exactly one profile document
// read. A failed read resolves to an empty name so the state transition
// still completes.
func (m *SessionManager) resolveDisplayName(ctx context.Context, p *identity.Principal) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}

	doc, err := m.Profiles.Get(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) && m.Logger != nil {
			m.Logger.WithError(err).WithField("principal_id", p.ID).Warn("profile read failed during resolution")
		}
		return ""
	}
	return doc.Name
}

// ensureProfile creates the profile document for a federated principal on
// first login. Existing documents are left untouched.
func (m *SessionManager) ensureProfile(ctx context.Context, p *identity.Principal) error {
	_, err := m.Profiles.Get(ctx, p.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	name := p.DisplayName
	if name == "" {
		name = defaultDisplayName
	}
	return m.Profiles.Create(ctx, &entity.Profile{
		ID:        p.ID,
		Name:      name,
		Email:     p.Email,
		CreatedAt: time.Now().UTC(),
	})
}
