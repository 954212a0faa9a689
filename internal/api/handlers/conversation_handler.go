package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/lexispeak/internal/services"
)

type ConversationHandler struct {
	permissions services.PermissionService
	convs       services.ConversationService
	reports     services.ReportService
	buffers     services.BufferService // nil without Mongo
}

func NewConversationHandler(permissions services.PermissionService, convs services.ConversationService, reports services.ReportService, buffers services.BufferService) *ConversationHandler {
	return &ConversationHandler{permissions: permissions, convs: convs, reports: reports, buffers: buffers}
}

// Permission consumes one conversation from the caller's plan.
func (h *ConversationHandler) Permission(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	grant, err := h.permissions.Consume(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (h *ConversationHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	st, err := h.reports.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *ConversationHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.reports.History(c.Request.Context(), userID, queryLimit(c, 50, 200))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ConversationHandler) Turns(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	rows, err := h.convs.ListBySession(c.Request.Context(), userID, sessionID, queryLimit(c, 200, 500))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    sessionID,
		"conversations": rows,
	})
}

// Trace lists the utterance pipeline trace of a session. Admin only.
func (h *ConversationHandler) Trace(c *gin.Context) {
	if h.buffers == nil {
		c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session_id"), "utterances": []any{}})
		return
	}

	sessionID := c.Param("session_id")
	rows, err := h.buffers.ListBySession(c.Request.Context(), sessionID, int64(queryLimit(c, 100, 500)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "utterances": rows})
}
