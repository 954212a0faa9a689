package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/lexispeak/internal/services"
	"github.com/yoockh/lexispeak/internal/utils"
)

type TopicHandler struct {
	svc services.TopicService
}

func NewTopicHandler(svc services.TopicService) *TopicHandler {
	return &TopicHandler{svc: svc}
}

func (h *TopicHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *TopicHandler) Get(c *gin.Context) {
	t, err := h.svc.Resolve(c.Request.Context(), c.Param("topic_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TopicHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.TopicInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TopicHandler.Create", "invalid request body", err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}
