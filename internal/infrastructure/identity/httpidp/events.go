package httpidp

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
)

type eventPayload struct {
	IDToken *string `json:"id_token"`
}

// Subscribe opens the provider's SSE stream and feeds decoded notifications
// to cb in arrival order. The stream is not re-established on failure;
// reconnection policy belongs to the provider deployment, not this client.
func (c *Client) Subscribe(cb identity.Callback) (identity.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/events", nil)
	if err != nil {
		cancel()
		return nil, identity.NewError(identity.KindUnavailable, "idp.subscribe", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No per-request timeout here: the stream is expected to live for the
	// whole process.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		cancel()
		return nil, identity.NewError(identity.KindUnavailable, "idp.subscribe", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, identity.NewError(identity.KindUnavailable, "idp.subscribe", errorFromStatus(resp.Status))
	}

	sub := &subscription{cancel: cancel}
	go c.readEvents(resp, cb)
	return sub, nil
}

func (c *Client) readEvents(resp *http.Response, cb identity.Callback) {
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev eventPayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			if c.Logger != nil {
				c.Logger.WithError(err).Warn("bad auth event payload, skipping")
			}
			continue
		}
		if ev.IDToken == nil {
			cb(nil)
			continue
		}
		p, err := c.principalFromToken(*ev.IDToken, "idp.events")
		if err != nil {
			if c.Logger != nil {
				c.Logger.WithError(err).Warn("unparseable id token on event stream, skipping")
			}
			continue
		}
		cb(p)
	}
	if err := scanner.Err(); err != nil && c.Logger != nil {
		c.Logger.WithError(err).Warn("auth event stream ended")
	}
}

type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type statusError string

func (e statusError) Error() string { return "provider returned " + string(e) }

func errorFromStatus(status string) error { return statusError(status) }
