package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/voxus/internal/handlers"
	"github.com/thereayou/voxus/internal/middleware"
	"github.com/thereayou/voxus/pkg/auth"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Conversations *handlers.ConversationHandler
	Groups        *handlers.GroupHandler
	Friends       *handlers.FriendshipHandler
	Calls         *handlers.CallHandler
	WebSocket     *handlers.WebSocketHandler
}

func APIEndpoints(r *gin.Engine, h Handlers, jwtMgr *auth.JWTManager, rdb *redis.Client) {
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Telemetry("voxus"), middleware.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.AuthMiddleware(jwtMgr, rdb)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1", requireAuth)
	{
		users := api.Group("/users")
		users.GET("/me", h.Users.GetMe)
		users.PATCH("/me", h.Users.UpdateMe)
		users.GET("/search", h.Users.SearchByPhone)
		users.GET("/online", h.WebSocket.OnlineUsers)
		users.GET("/:id", h.Users.GetUser)

		conversations := api.Group("/conversations")
		conversations.POST("", h.Conversations.CreateConversation)
		conversations.GET("", h.Conversations.GetMyConversations)
		conversations.GET("/:id", h.Conversations.GetConversation)
		conversations.GET("/:id/messages", h.Conversations.GetMessages)
		conversations.POST("/:id/messages", h.Conversations.SendMessage)
		conversations.POST("/:id/attachments", h.Conversations.SendAttachment)

		groups := api.Group("/groups")
		groups.POST("", h.Groups.CreateGroup)
		groups.GET("", h.Groups.GetMyGroups)
		groups.DELETE("/:id", h.Groups.DeleteGroup)
		groups.POST("/:id/join", h.Groups.JoinGroup)
		groups.POST("/:id/leave", h.Groups.LeaveGroup)
		groups.GET("/:id/members", h.Groups.GetMembers)
		groups.DELETE("/:id/members/:userId", h.Groups.RemoveMember)
		groups.GET("/:id/messages", h.Groups.GetMessages)
		groups.POST("/:id/messages", h.Groups.SendMessage)
		groups.POST("/:id/attachments", h.Groups.SendAttachment)

		friends := api.Group("/friends")
		friends.GET("", h.Friends.GetFriends)
		friends.GET("/requests", h.Friends.GetRequests)
		friends.POST("/requests", h.Friends.SendRequest)
		friends.POST("/requests/:id/respond", h.Friends.Respond)

		calls := api.Group("/calls")
		calls.POST("", h.Calls.InitiateCall)
		calls.GET("/active", h.Calls.GetActiveCall)
		calls.GET("/history", h.Calls.GetHistory)
		calls.GET("/:id", h.Calls.GetCall)
		calls.POST("/:id/accept", h.Calls.AcceptCall)
		calls.POST("/:id/reject", h.Calls.RejectCall)
		calls.POST("/:id/end", h.Calls.EndCall)
		calls.POST("/:id/signal", h.Calls.Signal)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), h.WebSocket.HandleWebSocket)
}
