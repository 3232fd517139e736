package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
	"github.com/andriwidi/go-session-orchestrator/internal/domain/repository"
)

// ProfileRepository stores profile documents in the profiles table, keyed by
// the provider-assigned principal id.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*entity.Profile, error) {
	p := &entity.Profile{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM profiles
		WHERE id = $1
	`, id)

	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Name, p.Email, p.CreatedAt)
	return err
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
