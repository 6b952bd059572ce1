package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute
)

// TokenRepository 每个账号只保留最近一次登录的 access token
type TokenRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewTokenRepository(client *redis.Client, ttl time.Duration) *TokenRepository {
	if ttl <= 0 {
		ttl = UserTokenExpire
	}
	return &TokenRepository{Client: client, TTL: ttl}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("%s:%s", UserTokenPrefix, userID)
}

func (r *TokenRepository) Put(ctx context.Context, userID, token string) error {
	if err := r.Client.Set(ctx, tokenKey(userID), token, r.TTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID string) (string, error) {
	token, err := r.Client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

func (r *TokenRepository) Extend(ctx context.Context, userID string) error {
	ok, err := r.Client.Expire(ctx, tokenKey(userID), r.TTL).Result()
	if err != nil {
		return ErrExtendFailed
	}
	if !ok {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID string) error {
	if err := r.Client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
