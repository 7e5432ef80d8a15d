package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/utils"
)

type ModuleHandler struct {
	svc services.ModuleService
}

func NewModuleHandler(svc services.ModuleService) *ModuleHandler {
	return &ModuleHandler{svc: svc}
}

type CreateModuleRequest struct {
	Title                    string   `json:"title"`
	Description              string   `json:"description"`
	ContentType              string   `json:"contentType"`
	ContentURL               string   `json:"contentUrl"`
	EstimatedDurationMinutes int      `json:"estimatedDurationMinutes"`
	Difficulty               string   `json:"difficulty"`
	Topics                   []string `json:"topics"`
}

func (h *ModuleHandler) Create(c *gin.Context) {
	var req CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ModuleHandler.Create", "invalid request body", err))
		return
	}

	m, err := h.svc.Create(c.Request.Context(), services.CreateModuleInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *ModuleHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("module_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *ModuleHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.LearningModule{}
	}
	c.JSON(http.StatusOK, gin.H{"modules": rows})
}
