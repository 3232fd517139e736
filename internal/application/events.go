package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/entity"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
	"github.com/andriwidi/go-session-orchestrator/pkg/mailer"
)

const sessionMirrorTTL = 24 * time.Hour

// mirror publishes the resolved session to Redis for out-of-process readers.
func (m *SessionManager) mirror(ctx context.Context, u *entity.SessionUser) {
	if m.Redis == nil {
		return
	}
	if err := helpers.MirrorSession(ctx, m.Redis, u, sessionMirrorTTL); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("key", helpers.SessionMirrorKey).Warn("redis session mirror failed")
	}
}

func (m *SessionManager) clearMirror(ctx context.Context) {
	if m.Redis == nil {
		return
	}
	if err := helpers.ClearSessionMirror(ctx, m.Redis); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("key", helpers.SessionMirrorKey).Warn("redis session mirror clear failed")
	}
}

// indexEvent records an auth event in Elasticsearch, best-effort.
func (m *SessionManager) indexEvent(ctx context.Context, event, principalID string) {
	if m.ES == nil || m.ESEventsIndex == "" {
		return
	}
	doc := map[string]any{
		"event":        event,
		"principal_id": principalID,
		"at":           time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: m.ESEventsIndex, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, m.ES)
	if err != nil {
		if m.Logger != nil {
			m.Logger.WithError(err).WithField("event", event).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && m.Logger != nil {
		m.Logger.WithField("status", res.Status()).WithField("event", event).Warn("es index response error")
	}
}

// publishEmail enqueues a notification email job, best-effort.
func (m *SessionManager) publishEmail(ctx context.Context, job mailer.EmailJob) {
	if m.Pub == nil || !m.MailEnabled {
		return
	}
	if err := m.Pub.PublishJSON(ctx, job); err != nil && m.Logger != nil {
		m.Logger.WithError(err).WithField("template", job.Template).Warn("email enqueue failed")
	}
}
