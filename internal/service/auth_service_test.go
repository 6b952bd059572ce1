package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"community_hub/internal/gateway"
	"community_hub/internal/pkg"
	rdsrepo "community_hub/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	m.sent = append(m.sent, to)
	return m.err
}

func setupAuth(t *testing.T, mailer Mailer) (*AuthService, *gateway.Memory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := gateway.NewMemory(nil)
	svc := NewAuthService(store, rdsrepo.NewTokenRepository(client, time.Minute),
		pkg.NewTokenIssuer("access", "refresh"), mailer)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestAuthService_SignUpSignIn(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := setupAuth(t, mailer)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", *sess.User.FullName)
	assert.Equal(t, []string{"ada@example.com"}, mailer.sent)

	p, err := store.GetProfile(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)

	again, err := svc.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)

	_, err = svc.SignIn(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthService_DuplicateSignUp(t *testing.T) {
	svc, _ := setupAuth(t, nil)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "ada@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "ada@example.com", "secret2", "")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthService_WelcomeMailFailureIsIgnored(t *testing.T) {
	svc, _ := setupAuth(t, &fakeMailer{err: errors.New("smtp down")})
	_, err := svc.SignUp(context.Background(), "ada@example.com", "secret1", "Ada")
	assert.NoError(t, err)
}

func TestAuthService_ResumeAndSignOut(t *testing.T) {
	svc, _ := setupAuth(t, nil)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)

	p, err := svc.Resume(ctx, sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, p.ID)

	require.NoError(t, svc.SignOut(ctx, sess.User.ID))
	_, err = svc.Resume(ctx, sess.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthService_NewerSignInEndsOlderSession(t *testing.T) {
	svc, _ := setupAuth(t, nil)
	ctx := context.Background()

	first, err := svc.SignUp(ctx, "ada@example.com", "secret1", "")
	require.NoError(t, err)
	// 保证两次签发的 iat 不同
	time.Sleep(1100 * time.Millisecond)
	_, err = svc.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Resume(ctx, first.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := setupAuth(t, nil)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ada@example.com", "secret1", "")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, next.User.ID)

	p, err := svc.Resume(ctx, next.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, p.ID)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrAuthFailed)
}
