package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"community_hub/internal/model"
	"community_hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type tokenAuth map[string]string

func (a tokenAuth) SignUp(context.Context, string, string, string) (*service.Session, error) {
	return nil, service.ErrAuthFailed
}

func (a tokenAuth) SignIn(context.Context, string, string) (*service.Session, error) {
	return nil, service.ErrAuthFailed
}

func (a tokenAuth) SignOut(context.Context, string) error { return nil }

func (a tokenAuth) Resume(_ context.Context, token string) (*model.Profile, error) {
	id, ok := a[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &model.Profile{ID: id, Email: id + "@example.com"}, nil
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(tokenAuth{"good": "u1"}))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, SessionFrom(c).UserID())
	})
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestSession(t *testing.T) {
	r := newEngine()

	cases := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"anonymous", "/whoami", "", http.StatusOK, ""},
		{"bearer", "/whoami", "Bearer good", http.StatusOK, "u1"},
		{"query token", "/whoami?access_token=good", "", http.StatusOK, "u1"},
		{"bad scheme", "/whoami", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "/whoami", "Bearer nope", http.StatusUnauthorized, ""},
		{"private anonymous", "/private", "", http.StatusUnauthorized, ""},
		{"private signed in", "/private", "Bearer good", http.StatusOK, "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
