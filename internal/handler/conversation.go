package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// ConversationHandler 会话处理器
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List 会话列表
// @Summary      会话列表
// @Description  当前用户的私聊与群聊会话，按最后消息时间倒序
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Conversation}
// @Router       /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.conversationService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conversations)
}
