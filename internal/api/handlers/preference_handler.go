package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/utils"
)

type PreferenceHandler struct {
	svc services.PreferenceService
}

func NewPreferenceHandler(svc services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}

	v, err := h.svc.GetVector(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type UpdatePreferencesRequest struct {
	AddInterests    []string `json:"addInterests"`
	RemoveInterests []string `json:"removeInterests"`
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PreferenceHandler.Update", "invalid request body", err))
		return
	}

	v, err := h.svc.EditExplicit(c.Request.Context(), userID, req.AddInterests, req.RemoveInterests)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *PreferenceHandler) Recompute(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}

	v, err := h.svc.Recompute(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
