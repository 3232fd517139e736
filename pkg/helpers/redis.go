package helpers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
)

// SessionMirrorKey is the hash holding the current resolved session. Other
// processes (dashboards, ops tooling) read it; only the orchestrator writes.
const SessionMirrorKey = "session:current"

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// MirrorSession writes the resolved user to the session hash with a TTL.
func MirrorSession(ctx context.Context, rdb *redis.Client, u *entity.SessionUser, ttl time.Duration) error {
	fields := map[string]any{
		"user_id":     u.ID,
		"email":       u.Email,
		"name":        u.Name,
		"resolved_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, SessionMirrorKey, fields)
	pipe.Expire(ctx, SessionMirrorKey, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ClearSessionMirror removes the session hash once no principal is
// authenticated.
func ClearSessionMirror(ctx context.Context, rdb *redis.Client) error {
	return rdb.Del(ctx, SessionMirrorKey).Err()
}
