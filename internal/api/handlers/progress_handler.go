package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/utils"
)

type ProgressHandler struct {
	svc services.ProgressService
}

func NewProgressHandler(svc services.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

type UpdateProgressRequest struct {
	Status models.ProgressStatus `json:"status"`
}

type ProgressResponse struct {
	UserID      string                `json:"userId"`
	ModuleID    string                `json:"moduleId"`
	Status      models.ProgressStatus `json:"status"`
	StartedAt   *time.Time            `json:"startedAt,omitempty"`
	CompletedAt *time.Time            `json:"completedAt,omitempty"`
}

func progressResponse(r *models.ProgressRecord) ProgressResponse {
	return ProgressResponse{
		UserID:      r.UserID,
		ModuleID:    r.ModuleID,
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

func (h *ProgressHandler) Update(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProgressHandler.Update", "invalid request body", err))
		return
	}

	rec, err := h.svc.Update(c.Request.Context(), userID, c.Param("module_id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResponse(rec))
}

func (h *ProgressHandler) Get(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), userID, c.Param("module_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResponse(rec))
}

func (h *ProgressHandler) List(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, progressResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "progress": out})
}
