package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/api/handlers"
)

type Deps struct {
	Conversation   *handlers.ConversationHandler
	Progress       *handlers.ProgressHandler
	Recommendation *handlers.RecommendationHandler
	Feed           *handlers.FeedHandler
	Preference     *handlers.PreferenceHandler
	Module         *handlers.ModuleHandler
	Social         *handlers.SocialHandler
	WS             *handlers.WSHandler

	// Auth authenticates the caller; nil leaves routes open.
	Auth gin.HandlerFunc
	// Admin guards catalog writes; nil leaves them open.
	Admin gin.HandlerFunc
}

func passthrough(c *gin.Context) { c.Next() }

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth, admin := d.Auth, d.Admin
	if auth == nil {
		auth = passthrough
	}
	if admin == nil {
		admin = passthrough
	}

	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/ai_sandbox/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "ai_sandbox"})
	})

	api := r.Group("/")
	api.Use(auth)

	api.POST("/conversations", d.Conversation.Resolve)
	api.GET("/conversations/:conversation_id", d.Conversation.Get)
	api.POST("/conversations/:conversation_id/messages", d.Conversation.AppendMessage)
	api.GET("/conversations/:conversation_id/messages", d.Conversation.ListMessages)
	api.GET("/users/:user_id/conversations", d.Conversation.ListForUser)

	api.POST("/users/:user_id/follows/:target_id", d.Social.Follow)
	api.DELETE("/users/:user_id/follows/:target_id", d.Social.Unfollow)
	api.POST("/groups/:group_id/members/:user_id", d.Social.JoinGroup)
	api.DELETE("/groups/:group_id/members/:user_id", d.Social.LeaveGroup)
	api.POST("/posts", d.Social.CreatePost)
	api.PUT("/posts/:post_id/engagement", d.Social.UpdateEngagement)

	api.GET("/feed", d.Feed.Feed)

	sandbox := api.Group("/ai_sandbox")
	sandbox.POST("/users/:user_id/progress/:module_id", d.Progress.Update)
	sandbox.PUT("/users/:user_id/progress/:module_id", d.Progress.Update)
	sandbox.GET("/users/:user_id/progress/:module_id", d.Progress.Get)
	sandbox.GET("/users/:user_id/progress", d.Progress.List)
	sandbox.GET("/users/:user_id/recommendations", d.Recommendation.Recommend)
	sandbox.GET("/users/:user_id/preferences", d.Preference.Get)
	sandbox.PUT("/users/:user_id/preferences", d.Preference.Update)
	sandbox.POST("/users/:user_id/preferences/recompute", d.Preference.Recompute)
	sandbox.GET("/modules", d.Module.List)
	sandbox.GET("/modules/:module_id", d.Module.Get)
	sandbox.POST("/modules", admin, d.Module.Create)

	// WebSocket
	if d.WS != nil {
		api.GET("/ws/events", d.WS.Events)
	}
}
