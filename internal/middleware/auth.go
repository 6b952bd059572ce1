package middleware

import (
	"net/http"
	"strings"

	"community_hub/internal/session"

	"github.com/gin-gonic/gin"
)

const ContextSessionKey = "session"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// EventSource 与 WebSocket 无法带 header，允许走查询参数
		return c.Query("access_token"), true
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Session 为每个请求建立会话；带了 token 就必须有效，不带则为匿名
func Session(auth session.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := session.New(auth)

		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}
		if tokenStr != "" {
			if err := store.Load(c.Request.Context(), tokenStr); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
				return
			}
		}

		c.Set(ContextSessionKey, store)
		c.Next()
	}
}

// RequireUser 必须已登录
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).SignedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) *session.Store {
	if v, ok := c.Get(ContextSessionKey); ok {
		if s, ok := v.(*session.Store); ok {
			return s
		}
	}
	return session.New(nil)
}
