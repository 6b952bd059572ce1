package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community_hub/internal/gateway"
	"community_hub/internal/model"
	"community_hub/internal/pkg"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthFailed 调用方只区分成功与失败，具体原因写在包装信息里
var ErrAuthFailed = errors.New("authentication failed")

type CredentialStore interface {
	CreateAccount(ctx context.Context, u *model.User, p *model.Profile) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

type TokenStore interface {
	Put(ctx context.Context, userID, token string) error
	Get(ctx context.Context, userID string) (string, error)
	Extend(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type Session struct {
	User   model.Profile `json:"user"`
	Tokens pkg.Pair      `json:"tokens"`
}

type AuthService struct {
	store  CredentialStore
	tokens TokenStore
	issuer *pkg.TokenIssuer
	mailer Mailer
	cost   int
}

// NewAuthService mailer 可为 nil，表示不发欢迎邮件
func NewAuthService(store CredentialStore, tokens TokenStore, issuer *pkg.TokenIssuer, mailer Mailer) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		issuer: issuer,
		mailer: mailer,
		cost:   bcrypt.DefaultCost,
	}
}

func authFailed(reason string) error {
	return fmt.Errorf("%w: %s", ErrAuthFailed, reason)
}

func (s *AuthService) issue(ctx context.Context, p *model.Profile) (*Session, error) {
	pair, err := s.issuer.GeneratePair(p.ID)
	if err != nil {
		return nil, err
	}
	// 将token写入redis，后登录的会顶掉之前的会话
	if err = s.tokens.Put(ctx, p.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return &Session{User: *p, Tokens: *pair}, nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = strings.TrimSpace(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, authFailed("password could not be hashed")
	}

	id := uuid.NewString()
	user := &model.User{ID: id, Email: email, Password: string(hash)}
	profile := &model.Profile{ID: id, Email: email}
	if name := strings.TrimSpace(fullName); name != "" {
		profile.FullName = &name
	}

	if err = s.store.CreateAccount(ctx, user, profile); err != nil {
		if errors.Is(err, gateway.ErrConflict) {
			return nil, authFailed("email already registered")
		}
		glog.Errorf("auth: create account %s: %v", email, err)
		return nil, authFailed("sign up unavailable")
	}

	sess, err := s.issue(ctx, profile)
	if err != nil {
		glog.Errorf("auth: issue tokens for %s: %v", id, err)
		return nil, authFailed("sign up unavailable")
	}

	if s.mailer != nil {
		if err = s.mailer.SendWelcome(ctx, email, profile.DisplayName()); err != nil {
			glog.Warningf("auth: welcome mail to %s: %v", email, err)
		}
	}
	return sess, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, authFailed("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, authFailed("invalid email or password")
	}
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		glog.Errorf("auth: profile for %s: %v", user.ID, err)
		return nil, authFailed("sign in unavailable")
	}
	sess, err := s.issue(ctx, profile)
	if err != nil {
		glog.Errorf("auth: issue tokens for %s: %v", user.ID, err)
		return nil, authFailed("sign in unavailable")
	}
	return sess, nil
}

func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return authFailed("sign out failed")
	}
	return nil
}

// Resume 校验 access token 与 redis 中保存的一致，并续期
func (s *AuthService) Resume(ctx context.Context, accessToken string) (*model.Profile, error) {
	claims, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return nil, authFailed(err.Error())
	}
	stored, err := s.tokens.Get(ctx, claims.UserID)
	if err != nil || stored != accessToken {
		return nil, authFailed("session ended")
	}
	if err = s.tokens.Extend(ctx, claims.UserID); err != nil {
		glog.Warningf("auth: extend token for %s: %v", claims.UserID, err)
	}
	profile, err := s.store.GetProfile(ctx, claims.UserID)
	if err != nil {
		return nil, authFailed("account not found")
	}
	return profile, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, pair, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		return nil, authFailed(err.Error())
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, authFailed("account not found")
	}
	if err = s.tokens.Put(ctx, userID, pair.AccessToken); err != nil {
		glog.Errorf("auth: store refreshed token for %s: %v", userID, err)
		return nil, authFailed("refresh unavailable")
	}
	return &Session{User: *profile, Tokens: *pair}, nil
}
