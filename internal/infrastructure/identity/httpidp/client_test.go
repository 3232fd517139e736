package httpidp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
)

func testCodec() *helpers.TokenCodec {
	return helpers.NewTokenCodec("test-secret", time.Hour)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testCodec(), helpers.NewLogger("httpidp-test", "development"))
}

func TestSignInParsesPrincipalFromIDToken(t *testing.T) {
	codec := testCodec()
	token, err := codec.Mint("p1", "Ada", "ada@example.com")
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ada@example.com", body["email"])
		_ = json.NewEncoder(w).Encode(map[string]string{"id_token": token})
	}))

	p, err := c.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, &identity.Principal{ID: "p1", DisplayName: "Ada", Email: "ada@example.com"}, p)
}

func TestSignInErrorMapping(t *testing.T) {
	for status, kind := range map[int]identity.Kind{
		http.StatusUnauthorized:        identity.KindCredential,
		http.StatusConflict:            identity.KindCredential,
		http.StatusServiceUnavailable:  identity.KindUnavailable,
		http.StatusInternalServerError: identity.KindUnavailable,
	} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := c.SignIn(context.Background(), "a@example.com", "pw")
		require.Error(t, err)
		require.Equal(t, kind, identity.KindOf(err), "status %d", status)
	}
}

func TestFederatedFailureMapsToFederatedKind(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions/federated", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	}))
	_, err := c.SignInFederated(context.Background(), identity.FederatedGoogle)
	require.Equal(t, identity.KindFederated, identity.KindOf(err))
}

func TestSignOut(t *testing.T) {
	var called bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v1/sessions/current", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, c.SignOut(context.Background()))
	require.True(t, called)
}

func TestMissingIDTokenIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	_, err := c.SignIn(context.Background(), "a@example.com", "pw")
	require.Equal(t, identity.KindUnavailable, identity.KindOf(err))
}

func TestSubscribeStreamsNotifications(t *testing.T) {
	codec := testCodec()
	token, err := codec.Mint("p1", "Ada", "ada@example.com")
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/events", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fl, ok := w.(http.Flusher)
		require.True(t, ok)

		fmt.Fprintf(w, "data: {\"id_token\": null}\n\n")
		fl.Flush()
		fmt.Fprintf(w, "data: {\"id_token\": %q}\n\n", token)
		fl.Flush()
		fmt.Fprintf(w, "data: {\"id_token\": \"garbage\"}\n\n")
		fl.Flush()
		fmt.Fprintf(w, "data: {\"id_token\": null}\n\n")
		fl.Flush()
	}))

	ch := make(chan *identity.Principal, 16)
	sub, err := c.Subscribe(func(p *identity.Principal) { ch <- p })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	next := func() *identity.Principal {
		select {
		case p := <-ch:
			return p
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notification")
			return nil
		}
	}

	require.Nil(t, next())
	p := next()
	require.NotNil(t, p)
	require.Equal(t, "p1", p.ID)
	require.Equal(t, "Ada", p.DisplayName)
	// The garbage token is skipped, the stream keeps going.
	require.Nil(t, next())
}

func TestSubscribeRejectsNonOKStream(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.Subscribe(func(*identity.Principal) {})
	require.Equal(t, identity.KindUnavailable, identity.KindOf(err))
}
