// Package httpidp is the client for the first-party remote identity
// provider. Credential calls are plain JSON over HTTP; the provider answers
// with an HS256 id token whose claims carry the principal descriptor. Auth
// state notifications arrive over a server-sent event stream.
package httpidp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
)

// federatedTimeout bounds the blocking interactive consent call; the rest of
// the calls use the default client timeout.
const (
	defaultTimeout   = 10 * time.Second
	federatedTimeout = 2 * time.Minute
)

type Client struct {
	BaseURL string
	Codec   *helpers.TokenCodec
	Logger  *logrus.Logger

	httpc *http.Client
}

func NewClient(baseURL string, codec *helpers.TokenCodec, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Codec:   codec,
		Logger:  logger,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

type tokenResponse struct {
	IDToken string `json:"id_token"`
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (*identity.Principal, error) {
	const op = "idp.create_account"
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/accounts",
		map[string]string{"email": email, "password": password}, &resp, identity.KindCredential, op)
	if err != nil {
		return nil, err
	}
	return c.principalFromToken(resp.IDToken, op)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	const op = "idp.sign_in"
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/sessions",
		map[string]string{"email": email, "password": password}, &resp, identity.KindCredential, op)
	if err != nil {
		return nil, err
	}
	return c.principalFromToken(resp.IDToken, op)
}

// SignInFederated blocks while the provider drives the interactive consent
// flow on its end; a dismissed or blocked flow surfaces as a 4xx.
func (c *Client) SignInFederated(ctx context.Context, kind identity.FederatedKind) (*identity.Principal, error) {
	const op = "idp.sign_in_federated"
	ctx, cancel := context.WithTimeout(ctx, federatedTimeout)
	defer cancel()
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/federated",
		map[string]string{"provider": string(kind)}, &resp, identity.KindFederated, op)
	if err != nil {
		return nil, err
	}
	return c.principalFromToken(resp.IDToken, op)
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/sessions/current", nil, nil, identity.KindCredential, "idp.sign_out")
}

func (c *Client) UpdateDisplayName(ctx context.Context, principalID, name string) error {
	return c.doJSON(ctx, http.MethodPatch, "/v1/accounts/"+principalID,
		map[string]string{"display_name": name}, nil, identity.KindProfileSync, "idp.update_display_name")
}

// doJSON performs one round trip. 4xx responses map to kind4xx, everything
// else that goes wrong maps to KindUnavailable.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, kind4xx identity.Kind, op string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return identity.NewError(identity.KindUnavailable, op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return identity.NewError(identity.KindUnavailable, op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return identity.NewError(identity.KindUnavailable, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		kind := identity.KindUnavailable
		if resp.StatusCode < 500 {
			kind = kind4xx
		}
		return identity.NewError(kind, op, fmt.Errorf("provider returned %s", resp.Status))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return identity.NewError(identity.KindUnavailable, op, err)
	}
	return nil
}

func (c *Client) principalFromToken(token, op string) (*identity.Principal, error) {
	if token == "" {
		return nil, identity.NewError(identity.KindUnavailable, op, errors.New("provider response missing id token"))
	}
	claims, err := c.Codec.Parse(token)
	if err != nil {
		return nil, identity.NewError(identity.KindUnavailable, op, err)
	}
	return &identity.Principal{ID: claims.Subject, DisplayName: claims.Name, Email: claims.Email}, nil
}

var _ identity.Provider = (*Client)(nil)
