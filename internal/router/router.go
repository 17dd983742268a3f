package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"murmur.chat.web/internal/config"
	"murmur.chat.web/internal/handler"
	"murmur.chat.web/internal/jwt"
	"murmur.chat.web/internal/middleware"
)

// Handlers 路由所需的全部处理器
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Group        *handler.GroupHandler
	Message      *handler.MessageHandler
	Conversation *handler.ConversationHandler
	Admin        *handler.AdminHandler
}

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtService *jwt.Service,
	tokenStore middleware.TokenStore,
	h *Handlers,
) *gin.Engine {
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 认证接口（无需登录）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// 需要认证的接口
		authenticated := v1.Group("")
		authenticated.Use(middleware.TokenAuth(jwtService, tokenStore))
		{
			authenticated.POST("/auth/logout", h.Auth.Logout)

			authenticated.GET("/users", h.User.List)
			authenticated.GET("/users/:id", h.User.Get)
			authenticated.GET("/profile/me", h.User.Profile)
			authenticated.PATCH("/profile/me", h.User.UpdateProfile)

			// 群组与成员
			groups := authenticated.Group("/groups")
			{
				groups.POST("", h.Group.Create)
				groups.GET("", h.Group.List)
				groups.DELETE("/:id", h.Group.Delete)
				groups.POST("/:id/members", h.Group.AddMember)
				groups.GET("/:id/members", h.Group.ListMembers)
				groups.POST("/:id/leave", h.Group.Leave)

				// 入群申请
				groups.POST("/:id/join", h.Group.RequestJoin)
				groups.GET("/:id/join/status", h.Group.JoinStatus)
				groups.GET("/:id/requests", h.Group.ListJoinRequests)
				groups.POST("/:id/requests/:userId/approve", h.Group.ApproveJoin)
			}

			// 消息
			messages := authenticated.Group("/messages")
			{
				messages.POST("", h.Message.Send)
				messages.GET("", h.Message.List)
				messages.PATCH("/:id/read", h.Message.MarkRead)
			}

			// 会话与公告
			authenticated.GET("/conversations", h.Conversation.List)
			authenticated.GET("/announcements", h.Admin.ListAnnouncements)

			// 管理端
			admin := authenticated.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				admin.GET("/users", h.Admin.ListUsers)
				admin.DELETE("/users/:id", h.Admin.DeleteUser)
				admin.PATCH("/users/:id/restore", h.Admin.RestoreUser)
				admin.PATCH("/users/:id/activate", h.Admin.SetUserActive)
				admin.GET("/groups", h.Admin.ListGroups)
				admin.DELETE("/groups/:id", h.Admin.DeleteGroup)
				admin.PATCH("/groups/:id/restore", h.Admin.RestoreGroup)
				admin.PATCH("/groups/:id/activate", h.Admin.SetGroupActive)
				admin.DELETE("/chats", h.Admin.PurgePrivateChat)
				admin.POST("/announcements", h.Admin.CreateAnnouncement)
				admin.DELETE("/announcements/:id", h.Admin.DeleteAnnouncement)
			}
		}
	}

	return r
}
