package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/yoosocial/internal/models"
	"github.com/yoockh/yoosocial/internal/services"
	"github.com/yoockh/yoosocial/internal/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ConversationHandler struct {
	svc services.ConversationService
}

func NewConversationHandler(svc services.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ResolveConversationRequest struct {
	ParticipantIDs []string `json:"participantIds"`
}

type ResolveConversationResponse struct {
	ConversationID string `json:"conversationId"`
	Created        bool   `json:"created"`
}

func (h *ConversationHandler) Resolve(c *gin.Context) {
	var req ResolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Resolve", "invalid request body", err))
		return
	}
	if caller := callerID(c); caller != "" && !contains(req.ParticipantIDs, caller) {
		writeError(c, utils.E(utils.CodeForbidden, "ConversationHandler.Resolve", "caller must be a participant", nil))
		return
	}

	conv, created, err := h.svc.Resolve(c.Request.Context(), req.ParticipantIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ResolveConversationResponse{ConversationID: conv.ID, Created: created})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.svc.Get(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if caller := callerID(c); caller != "" && !contains(conv.ParticipantIDs, caller) {
		writeError(c, utils.E(utils.CodeForbidden, "ConversationHandler.Get", "forbidden", nil))
		return
	}
	c.JSON(http.StatusOK, conv)
}

type AppendMessageRequest struct {
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.AppendMessage", "invalid request body", err))
		return
	}
	if req.SenderID == "" {
		req.SenderID = callerID(c)
	}
	if !actingAs(c, req.SenderID) {
		return
	}

	msg, err := h.svc.AppendMessage(c.Request.Context(), c.Param("conversation_id"), req.SenderID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	limit, ok := queryLimit(c, "ConversationHandler.ListMessages")
	if !ok {
		return
	}
	conversationID := c.Param("conversation_id")

	if caller := callerID(c); caller != "" {
		conv, err := h.svc.Get(c.Request.Context(), conversationID)
		if err != nil {
			writeError(c, err)
			return
		}
		if !contains(conv.ParticipantIDs, caller) {
			writeError(c, utils.E(utils.CodeForbidden, "ConversationHandler.ListMessages", "forbidden", nil))
			return
		}
	}

	rows, err := h.svc.ListMessages(c.Request.Context(), conversationID, int64(clamp(limit, defaultListLimit, maxListLimit)))
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conversationID,
		"messages":       rows,
	})
}

func (h *ConversationHandler) ListForUser(c *gin.Context) {
	userID := c.Param("user_id")
	if !actingAs(c, userID) {
		return
	}
	limit, ok := queryLimit(c, "ConversationHandler.ListForUser")
	if !ok {
		return
	}

	rows, err := h.svc.ListForUser(c.Request.Context(), userID, clamp(limit, defaultListLimit, maxListLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":        userID,
		"conversations": rows,
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
