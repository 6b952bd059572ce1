// Package session holds the identity of one client connection and lets
// view-models react when it changes.
package session

import (
	"context"
	"errors"
	"sync"

	"community_hub/internal/model"
	"community_hub/internal/pkg"
	"community_hub/internal/service"
)

var ErrNotSignedIn = errors.New("not signed in")

type Authenticator interface {
	SignUp(ctx context.Context, email, password, fullName string) (*service.Session, error)
	SignIn(ctx context.Context, email, password string) (*service.Session, error)
	SignOut(ctx context.Context, userID string) error
	Resume(ctx context.Context, accessToken string) (*model.Profile, error)
}

// Listener 收到变更后的身份，nil 表示已登出
type Listener func(user *model.Profile)

type Store struct {
	auth Authenticator

	mu      sync.RWMutex
	user    *model.Profile
	tokens  *pkg.Pair
	token   string
	loading bool
	subs    map[uint64]Listener
	next    uint64
}

func New(auth Authenticator) *Store {
	return &Store{auth: auth, subs: make(map[uint64]Listener)}
}

func (s *Store) User() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Store) SignedIn() bool {
	return s.UserID() != ""
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token 当前 access token
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Tokens returns the pair issued by the last sign-in or sign-up, if any.
func (s *Store) Tokens() *pkg.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return nil
	}
	p := *s.tokens
	return &p
}

// Subscribe registers fn for identity changes; call the returned func to stop.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// set 更新身份后在锁外通知订阅方
func (s *Store) set(user *model.Profile, token string, tokens *pkg.Pair) {
	s.mu.Lock()
	s.user, s.token, s.tokens = user, token, tokens
	s.loading = false
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}

// Load 用已有 access token 恢复会话；失败时保持未登录
func (s *Store) Load(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrNotSignedIn
	}
	s.setLoading(true)
	user, err := s.auth.Resume(ctx, accessToken)
	if err != nil {
		s.setLoading(false)
		return err
	}
	s.set(user, accessToken, nil)
	return nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.setLoading(true)
	sess, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return err
	}
	s.set(&sess.User, sess.Tokens.AccessToken, &sess.Tokens)
	return nil
}

func (s *Store) SignUp(ctx context.Context, email, password, fullName string) error {
	s.setLoading(true)
	sess, err := s.auth.SignUp(ctx, email, password, fullName)
	if err != nil {
		s.setLoading(false)
		return err
	}
	s.set(&sess.User, sess.Tokens.AccessToken, &sess.Tokens)
	return nil
}

func (s *Store) SignOut(ctx context.Context) error {
	id := s.UserID()
	if id == "" {
		return ErrNotSignedIn
	}
	if err := s.auth.SignOut(ctx, id); err != nil {
		return err
	}
	s.set(nil, "", nil)
	return nil
}

// SetProfile 资料更新后刷新本地身份，不影响 token
func (s *Store) SetProfile(p *model.Profile) {
	s.mu.RLock()
	token, tokens := s.token, s.tokens
	same := s.user != nil && p != nil && s.user.ID == p.ID
	s.mu.RUnlock()
	if !same {
		return
	}
	s.set(p, token, tokens)
}
