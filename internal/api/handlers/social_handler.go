package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/utils"
)

type SocialHandler struct {
	posts services.PostService
	graph services.GraphService
}

func NewSocialHandler(posts services.PostService, graph services.GraphService) *SocialHandler {
	return &SocialHandler{posts: posts, graph: graph}
}

type CreatePostRequest struct {
	AuthorID string `json:"authorId"`
	Text     string `json:"text"`
}

func (h *SocialHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SocialHandler.CreatePost", "invalid request body", err))
		return
	}
	if req.AuthorID == "" {
		req.AuthorID = callerID(c)
	}
	if !actingAs(c, req.AuthorID) {
		return
	}

	p, err := h.posts.Create(c.Request.Context(), req.AuthorID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type EngagementRequest struct {
	EngagementScore *float64 `json:"engagementScore"`
}

func (h *SocialHandler) UpdateEngagement(c *gin.Context) {
	var req EngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EngagementScore == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SocialHandler.UpdateEngagement", "engagementScore is required", err))
		return
	}

	p, err := h.posts.RefreshEngagement(c.Request.Context(), c.Param("post_id"), *req.EngagementScore)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *SocialHandler) Follow(c *gin.Context) {
	h.edge(c, h.graph.Follow)
}

func (h *SocialHandler) Unfollow(c *gin.Context) {
	h.edge(c, h.graph.Unfollow)
}

func (h *SocialHandler) edge(c *gin.Context, apply func(ctx context.Context, followerID, targetID string) error) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	if err := apply(c.Request.Context(), userID, c.Param("target_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SocialHandler) JoinGroup(c *gin.Context) {
	h.membership(c, h.graph.JoinGroup)
}

func (h *SocialHandler) LeaveGroup(c *gin.Context) {
	h.membership(c, h.graph.LeaveGroup)
}

func (h *SocialHandler) membership(c *gin.Context, apply func(ctx context.Context, groupID, userID string) error) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	if err := apply(c.Request.Context(), c.Param("group_id"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
