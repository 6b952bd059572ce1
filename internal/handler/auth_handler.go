package handler

import (
	"net/http"

	"community_hub/internal/middleware"
	"community_hub/internal/service"
	"community_hub/internal/view"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func sessionBody(user any, access, refresh string) gin.H {
	return gin.H{"user": user, "access_token": access, "refresh_token": refresh}
}

// SignUp 注册并直接登录
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req view.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err, "invalid params")
		return
	}

	store := middleware.SessionFrom(c)
	if err := store.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "failed to create account"})
		return
	}
	tokens := store.Tokens()
	c.JSON(http.StatusCreated, sessionBody(store.User(), tokens.AccessToken, tokens.RefreshToken))
}

// Login 登录接口
func (h *AuthHandler) Login(c *gin.Context) {
	var req view.SignInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err, "invalid params")
		return
	}

	store := middleware.SessionFrom(c)
	if err := store.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid email or password"})
		return
	}
	tokens := store.Tokens()
	c.JSON(http.StatusOK, sessionBody(store.User(), tokens.AccessToken, tokens.RefreshToken))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.SessionFrom(c).SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Session 当前登录用户，未登录时 user 为 null
func (h *AuthHandler) Session(c *gin.Context) {
	store := middleware.SessionFrom(c)
	c.JSON(http.StatusOK, gin.H{"user": store.User(), "loading": store.Loading()})
}

// TokenRefresh 利用refresh来更新access
func (h *AuthHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	sess, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
		return
	}
	c.JSON(http.StatusOK, sessionBody(sess.User, sess.Tokens.AccessToken, sess.Tokens.RefreshToken))
}
