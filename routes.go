package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"bee-social/internal/blob"
	"bee-social/internal/config"
	"bee-social/internal/handlers"
	"bee-social/internal/identity"
	"bee-social/internal/middleware"
	"bee-social/internal/observability"
	"bee-social/internal/ratelimit"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
	"bee-social/internal/ws"
)

type routerDeps struct {
	users         repositories.UserRepository
	chats         repositories.ChatRepository
	messages      repositories.MessageRepository
	follows       repositories.FollowRepository
	notifications repositories.NotificationRepository
	posts         repositories.PostRepository
	likes         repositories.LikeRepository
	comments      repositories.CommentRepository

	directory identity.Resolver
	images    blob.Store
	limiter   ratelimit.Limiter
	ipLimiter *middleware.IPRateLimiter
	events    telemetry.Sink
	verifier  middleware.TokenVerifier
	checks    map[string]handlers.HealthCheck
}

func newRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := ws.NewHub()
	chatHandler := handlers.NewChatHandler(deps.chats, deps.messages, deps.directory, hub, deps.events)
	postHandler := handlers.NewPostHandler(handlers.PostDeps{
		Posts:       deps.posts,
		Likes:       deps.likes,
		Comments:    deps.comments,
		Profiles:    deps.directory,
		Images:      deps.images,
		Limiter:     deps.limiter,
		Events:      deps.events,
		ImageURLTTL: cfg.ImageURLTTL,
	})
	userHandler := handlers.NewUserHandler(deps.users, deps.follows, deps.directory, deps.events)
	notificationHandler := handlers.NewNotificationHandler(deps.notifications, deps.directory)
	chatWS := ws.NewChatWebSocketHandler(hub, deps.chats, deps.messages, deps.verifier, deps.events, cfg.AllowedOrigins())

	router := gin.New()
	router.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.RequestIDMiddleware(),
		otelgin.Middleware(serviceName),
		observability.HTTPMetricsMiddleware(),
		middleware.LoggingMiddleware(),
		cors.New(corsConfig(cfg.AllowedOrigins())),
		middleware.SecurityHeaders(),
		middleware.RateLimitMiddleware(deps.ipLimiter),
	)

	router.GET("/healthz", handlers.Health(deps.checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	handlers.RegisterDebugRoutes(router, deps.events, cfg.IsDevelopment())

	// Public reads; a valid token only personalizes likedByMe.
	public := router.Group("/", middleware.OptionalAuthMiddleware(deps.verifier))
	public.GET("/posts", postHandler.ListPosts)
	public.GET("/posts/:post_id", postHandler.GetPost)
	public.GET("/posts/:post_id/comments", postHandler.ListComments)
	public.GET("/users", userHandler.ListUsers)
	public.GET("/users/:user_id/posts", postHandler.ListUserPosts)
	public.GET("/users/:user_id/follow-counts", userHandler.FollowCounts)
	public.GET("/profiles/:username", userHandler.GetByUsername)

	auth := router.Group("/", middleware.AuthMiddleware(deps.verifier))
	auth.POST("/chats", chatHandler.CreateChat)
	auth.GET("/chats", chatHandler.ListChats)
	auth.GET("/chats/:chat_id", chatHandler.GetFullChat)
	auth.GET("/chats/:chat_id/messages", chatHandler.GetMessages)
	auth.POST("/chats/:chat_id/messages", chatHandler.SendMessage)
	auth.POST("/chats/:chat_id/read", chatHandler.MarkRead)

	auth.GET("/me/unread-messages", chatHandler.UnreadMessages)
	auth.POST("/me/sync", userHandler.Sync)
	auth.GET("/me/notifications", notificationHandler.List)
	auth.GET("/me/notifications/unread-count", notificationHandler.UnreadCount)
	auth.POST("/me/notifications/read", notificationHandler.MarkAllRead)

	auth.POST("/users/:user_id/follow", userHandler.Follow)
	auth.DELETE("/users/:user_id/follow", userHandler.Unfollow)
	auth.GET("/users/:user_id/follow", userHandler.IsFollowing)

	auth.POST("/posts", postHandler.CreatePost)
	auth.DELETE("/posts/:post_id", postHandler.DeletePost)
	auth.POST("/posts/:post_id/like", postHandler.ToggleLike)
	auth.PUT("/posts/:post_id/like", postHandler.SetLike)
	auth.POST("/posts/:post_id/comments", postHandler.CreateComment)
	auth.DELETE("/comments/:comment_id", postHandler.DeleteComment)

	return router
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", observability.RequestIDHeader},
		ExposeHeaders: []string{observability.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return conf
	}
	conf.AllowOrigins = origins
	conf.AllowCredentials = true
	return conf
}
