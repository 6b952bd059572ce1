package pkg

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrRefreshExpired    = errors.New("refresh expired")
	ErrRefreshInvalid    = errors.New("refresh invalid")
	ErrTokenParseFailure = errors.New("token parse failure")
)

const (
	AccessTTL  = time.Minute * 30
	RefreshTTL = time.Hour * 24
)

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenIssuer 签发与校验 access/refresh 两类 token，密钥来自配置
type TokenIssuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string) *TokenIssuer {
	return &TokenIssuer{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     AccessTTL,
		RefreshTTL:    RefreshTTL,
		now:           time.Now,
	}
}

func (i *TokenIssuer) sign(userID, subject string, ttl time.Duration, secret []byte) (string, error) {
	now := i.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	})
	return tok.SignedString(secret)
}

func (i *TokenIssuer) GeneratePair(userID string) (*Pair, error) {
	accessToken, err := i.sign(userID, "access", i.AccessTTL, i.AccessSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := i.sign(userID, "refresh", i.RefreshTTL, i.RefreshSecret)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (i *TokenIssuer) parse(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrTokenParseFailure
	}
	return token.Claims.(*Claims), nil
}

// ParseAccess 解析 access
func (i *TokenIssuer) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr, i.AccessSecret)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	if claims.Subject != "access" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh 用 refresh token 换一对新的 token
func (i *TokenIssuer) Refresh(refreshToken string) (string, *Pair, error) {
	claims, err := i.parse(refreshToken, i.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", nil, ErrRefreshExpired
		}
		return "", nil, ErrRefreshInvalid
	}
	if claims.Subject != "refresh" {
		return "", nil, ErrRefreshInvalid
	}
	pair, err := i.GeneratePair(claims.UserID)
	if err != nil {
		return "", nil, err
	}
	return claims.UserID, pair, nil
}
