package router

import (
	"slices"
	"time"

	"community_hub/internal/assistant"
	"community_hub/internal/chat"
	"community_hub/internal/gateway"
	"community_hub/internal/handler"
	"community_hub/internal/media"
	"community_hub/internal/middleware"
	"community_hub/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Gateway     gateway.Gateway
	Auth        *service.AuthService
	Uploader    media.Uploader
	Completer   assistant.Completer
	ChatLimits  *chat.Limits
	CORSOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	auth := handler.NewAuthHandler(d.Auth)
	community := handler.NewCommunityHandler(d.Gateway, d.Uploader)
	profile := handler.NewProfileHandler(d.Gateway, d.Uploader)
	upload := handler.NewUploadHandler(d.Uploader)
	chatH := handler.NewChatHandler(d.Completer, d.Gateway, d.ChatLimits, d.CORSOrigins)

	r.GET("/health", handler.Health)

	api := r.Group("/api")
	api.Use(middleware.Session(d.Auth))

	// 登录态接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", auth.SignUp)
		authGroup.POST("/login", auth.Login)
		authGroup.GET("/session", auth.Session)
		authGroup.POST("/logout", middleware.RequireUser(), auth.Logout)
	}

	// token相关接口
	api.POST("/token/refresh", auth.TokenRefresh)

	// 社区相关接口
	communityGroup := api.Group("/communities")
	{
		communityGroup.GET("", community.List)
		communityGroup.GET("/events", community.ListEvents)
		communityGroup.GET("/:id", community.Get)
		communityGroup.GET("/:id/events", community.Events)

		communityGroup.POST("", middleware.RequireUser(), community.Create)
		communityGroup.POST("/:id/join", middleware.RequireUser(), community.Join)
		communityGroup.POST("/:id/leave", middleware.RequireUser(), community.Leave)
	}

	// 个人资料
	profileGroup := api.Group("/profile")
	profileGroup.Use(middleware.RequireUser())
	{
		profileGroup.GET("", profile.Get)
		profileGroup.PUT("", profile.Update)
	}

	api.POST("/uploads", middleware.RequireUser(), upload.Upload)

	// 助手：未登录也能拿到 locked 状态，由会话自己判断
	chatGroup := api.Group("/chat")
	{
		chatGroup.POST("", chatH.Send)
		chatGroup.GET("/ws", chatH.Socket)
	}

	return r
}
