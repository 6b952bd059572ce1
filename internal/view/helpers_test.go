package view

import (
	"context"
	"sync"
	"testing"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/realtime"
	"community_hub/internal/service"
	"community_hub/internal/session"

	"github.com/stretchr/testify/require"
)

// stubAuth 直接按邮箱在内存网关中找人，不校验密码
type stubAuth struct {
	g *gateway.Memory
}

func (a stubAuth) SignIn(ctx context.Context, email, _ string) (*service.Session, error) {
	u, err := a.g.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, service.ErrAuthFailed
	}
	p, err := a.g.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, service.ErrAuthFailed
	}
	return &service.Session{User: *p, Tokens: pkg.Pair{AccessToken: "tok-" + u.ID}}, nil
}

func (a stubAuth) SignUp(context.Context, string, string, string) (*service.Session, error) {
	return nil, service.ErrAuthFailed
}

func (a stubAuth) SignOut(context.Context, string) error { return nil }

func (a stubAuth) Resume(context.Context, string) (*model.Profile, error) {
	return nil, service.ErrAuthFailed
}

type fixture struct {
	feed *realtime.Broker
	g    *gateway.Memory
}

func newFixture() *fixture {
	feed := realtime.NewBroker()
	return &fixture{feed: feed, g: gateway.NewMemory(feed)}
}

func (f *fixture) account(t *testing.T, id, email string) {
	t.Helper()
	require.NoError(t, f.g.CreateAccount(context.Background(),
		&model.User{ID: id, Email: email, Password: "x"},
		&model.Profile{ID: id, Email: email}))
}

func (f *fixture) signedIn(t *testing.T, id, email string) *session.Store {
	t.Helper()
	f.account(t, id, email)
	s := session.New(stubAuth{g: f.g})
	require.NoError(t, s.SignIn(context.Background(), email, "secret1"))
	return s
}

func (f *fixture) anonymous() *session.Store {
	return session.New(stubAuth{g: f.g})
}

func (f *fixture) community(t *testing.T, name, desc, owner string) string {
	t.Helper()
	c := &model.Community{Name: name, Description: desc, ImageURL: "https://img/" + name, CreatedBy: owner}
	require.NoError(t, f.g.CreateCommunity(context.Background(), c))
	return c.ID
}

type fakeUploader struct {
	mu    sync.Mutex
	url   string
	err   error
	gate  chan struct{}
	calls int
}

func (u *fakeUploader) Upload(ctx context.Context, _ media.File) (string, error) {
	u.mu.Lock()
	u.calls++
	gate := u.gate
	u.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return u.url, u.err
}
