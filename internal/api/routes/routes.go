package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/lexispeak/internal/api/handlers"
	"github.com/yoockh/lexispeak/internal/api/middleware"
)

type Deps struct {
	Conversation *handlers.ConversationHandler
	Topic        *handlers.TopicHandler
	WS           *handlers.WSHandler
	JWT          middleware.JWTConfig
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.JWT))

	auth.POST("/conversation/permission", d.Conversation.Permission)
	auth.GET("/conversation/stats", d.Conversation.Stats)
	auth.GET("/conversation/history", d.Conversation.History)
	auth.GET("/conversation/:session_id/turns", d.Conversation.Turns)
	auth.GET("/conversation/:session_id/trace", middleware.RequireAdmin(), d.Conversation.Trace)

	auth.GET("/topics", d.Topic.List)
	auth.GET("/topics/:topic_id", d.Topic.Get)
	auth.POST("/topics", middleware.RequireAdmin(), d.Topic.Create)

	// WebSocket
	auth.GET("/ws/conversation", d.WS.Conversation)
	auth.GET("/ws/session/:session_id/events", d.WS.Events)
}
