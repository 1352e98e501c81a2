package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/gateway"
	"github.com/parley-chat/parley/internal/handler"
	"github.com/parley-chat/parley/internal/middleware"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Group   *handler.GroupHandler
	Message *handler.MessageHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, hub *gateway.Hub) {
	cfg := config.GlobalConfig

	h.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes (no auth required)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	// User routes (auth required)
	userGroup := h.Group("/users", middleware.JWTAuth())
	{
		userGroup.GET("", handlers.User.ListUsers)
		userGroup.GET("/me", handlers.User.GetProfile)
		userGroup.GET("/:user_id", handlers.User.GetUserById)
		userGroup.PUT("/me", handlers.User.UpdateProfile)
		userGroup.PUT("/me/picture", handlers.User.UpdatePicture)
	}

	// Group routes (auth required)
	groupGroup := h.Group("/groups", middleware.JWTAuth())
	{
		groupGroup.POST("", handlers.Group.CreateGroup)
		groupGroup.GET("", handlers.Group.ListGroups)
		groupGroup.GET("/:group_id", handlers.Group.GetGroup)
		groupGroup.POST("/:group_id/join", handlers.Group.JoinGroup)
		groupGroup.POST("/:group_id/members", handlers.Group.AddMember)
		groupGroup.PUT("/:group_id/picture", handlers.Group.UpdatePicture)
	}

	// Message routes (auth required)
	msgGroup := h.Group("/messages", middleware.JWTAuth())
	{
		msgGroup.POST("", handlers.Message.SendMessage)
		msgGroup.GET("/direct/:user_id", handlers.Message.GetDirectMessages)
		msgGroup.GET("/group/:group_id", handlers.Message.GetGroupMessages)
		msgGroup.POST("/read", handlers.Message.MarkRead)
	}

	// WebSocket route with origin validation
	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}

	h.GET("/ws", func(ctx context.Context, c *app.RequestContext) {
		hub.HandleConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// No origin header: same-origin request or non-browser client
	if origin == "" {
		return true
	}

	if len(allowedOrigins) == 0 {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}
