package devidp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
	"github.com/andriwidi/go-session-orchestrator/pkg/helpers"
)

func newTestProvider() *Provider {
	return New(helpers.NewLogger("devidp-test", "development"))
}

func listen(t *testing.T, p *Provider) chan *identity.Principal {
	t.Helper()
	ch := make(chan *identity.Principal, 16)
	sub, err := p.Subscribe(func(pr *identity.Principal) { ch <- pr })
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)
	return ch
}

func next(t *testing.T, ch chan *identity.Principal) *identity.Principal {
	t.Helper()
	select {
	case pr := <-ch:
		return pr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth notification")
		return nil
	}
}

func TestSubscribeDeliversCurrentState(t *testing.T) {
	p := newTestProvider()
	ch := listen(t, p)
	require.Nil(t, next(t, ch))
}

func TestCreateAccountSignsInAndNotifies(t *testing.T) {
	p := newTestProvider()
	ch := listen(t, p)
	require.Nil(t, next(t, ch)) // initial state

	pr, err := p.CreateAccount(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)
	require.NotEmpty(t, pr.ID)
	require.Equal(t, "grace@example.com", pr.Email)
	require.Empty(t, pr.DisplayName)

	got := next(t, ch)
	require.NotNil(t, got)
	require.Equal(t, pr.ID, got.ID)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	p := newTestProvider()
	_, err := p.CreateAccount(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)

	_, err = p.CreateAccount(context.Background(), "grace@example.com", "otherpass1")
	require.Error(t, err)
	require.Equal(t, identity.KindCredential, identity.KindOf(err))
}

func TestCreateAccountRejectsWeakPassword(t *testing.T) {
	p := newTestProvider()
	_, err := p.CreateAccount(context.Background(), "grace@example.com", "short")
	require.Error(t, err)
	require.Equal(t, identity.KindCredential, identity.KindOf(err))
}

func TestSignIn(t *testing.T) {
	p := newTestProvider()
	created, err := p.CreateAccount(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(context.Background()))

	pr, err := p.SignIn(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)
	require.Equal(t, created.ID, pr.ID)

	_, err = p.SignIn(context.Background(), "grace@example.com", "wrongpass1")
	require.Equal(t, identity.KindCredential, identity.KindOf(err))

	_, err = p.SignIn(context.Background(), "nobody@example.com", "validpass1")
	require.Equal(t, identity.KindCredential, identity.KindOf(err))
}

func TestSignOutIsIdempotent(t *testing.T) {
	p := newTestProvider()
	ch := listen(t, p)
	require.Nil(t, next(t, ch))

	require.NoError(t, p.SignOut(context.Background()))
	require.NoError(t, p.SignOut(context.Background()))

	// No state change, no further notifications.
	select {
	case pr := <-ch:
		t.Fatalf("unexpected notification: %+v", pr)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUpdateDisplayName(t *testing.T) {
	p := newTestProvider()
	pr, err := p.CreateAccount(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)

	require.NoError(t, p.UpdateDisplayName(context.Background(), pr.ID, "Grace"))
	again, err := p.SignIn(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)
	require.Equal(t, "Grace", again.DisplayName)

	err = p.UpdateDisplayName(context.Background(), "unknown", "X")
	require.Equal(t, identity.KindProfileSync, identity.KindOf(err))
}

func TestFederatedSignIn(t *testing.T) {
	p := newTestProvider()
	_, err := p.SignInFederated(context.Background(), identity.FederatedGoogle)
	require.Equal(t, identity.KindFederated, identity.KindOf(err))

	p.SeedFederated("dev.google@example.test", "")
	pr, err := p.SignInFederated(context.Background(), identity.FederatedGoogle)
	require.NoError(t, err)
	require.Equal(t, "dev.google@example.test", pr.Email)
	require.Empty(t, pr.DisplayName)

	_, err = p.SignInFederated(context.Background(), identity.FederatedKind("github"))
	require.Equal(t, identity.KindFederated, identity.KindOf(err))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	p := newTestProvider()
	ch := make(chan *identity.Principal, 16)
	sub, err := p.Subscribe(func(pr *identity.Principal) { ch <- pr })
	require.NoError(t, err)
	require.Nil(t, next(t, ch))

	sub.Unsubscribe()
	sub.Unsubscribe() // safe to release twice

	_, err = p.CreateAccount(context.Background(), "grace@example.com", "validpass1")
	require.NoError(t, err)

	select {
	case pr, ok := <-ch:
		if ok {
			t.Fatalf("unexpected notification after unsubscribe: %+v", pr)
		}
	case <-time.After(100 * time.Millisecond):
	}
}
