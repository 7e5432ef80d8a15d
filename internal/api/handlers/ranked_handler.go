package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/services"
)

type RecommendationItem struct {
	ModuleID string  `json:"moduleId"`
	Score    float64 `json:"score"`
}

type FeedItem struct {
	PostID string  `json:"postId"`
	Score  float64 `json:"score"`
}

type RankedPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
	Degraded   bool   `json:"degraded,omitempty"`
}

func rankedPage[T any](res *models.RankedResult, item func(models.RankedItem) T) RankedPage[T] {
	out := RankedPage[T]{
		Items:      make([]T, 0, len(res.Items)),
		NextCursor: res.NextCursor,
		HasMore:    res.HasMore,
		Degraded:   res.Degraded,
	}
	for _, it := range res.Items {
		out.Items = append(out.Items, item(it))
	}
	return out
}

type RecommendationHandler struct {
	svc services.RecommendationService
}

func NewRecommendationHandler(svc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{svc: svc}
}

func (h *RecommendationHandler) Recommend(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	limit, ok := queryLimit(c, "RecommendationHandler.Recommend")
	if !ok {
		return
	}

	res, err := h.svc.Recommend(c.Request.Context(), userID, strings.TrimSpace(c.Query("cursor")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rankedPage(res, func(it models.RankedItem) RecommendationItem {
		return RecommendationItem{ModuleID: it.ItemID, Score: it.Score}
	}))
}

type FeedHandler struct {
	svc services.FeedService
}

func NewFeedHandler(svc services.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

func (h *FeedHandler) Feed(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = callerID(c)
	}
	if !actingAs(c, userID) {
		return
	}
	limit, ok := queryLimit(c, "FeedHandler.Feed")
	if !ok {
		return
	}

	res, err := h.svc.Feed(c.Request.Context(), userID, strings.TrimSpace(c.Query("cursor")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rankedPage(res, func(it models.RankedItem) FeedItem {
		return FeedItem{PostID: it.ItemID, Score: it.Score}
	}))
}
