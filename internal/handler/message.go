package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// SendMessageRequest 发送消息请求
// recipientId / groupId 必须且只能填一个
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	RecipientID int64  `json:"recipientId"`
	GroupID     int64  `json:"groupId"`
}

// Send 发送消息
// @Summary      发送消息
// @Description  发送私聊或群聊消息，recipientId / groupId 二选一
// @Tags         消息
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendMessageRequest true "消息内容与接收方"
// @Success      201  {object}  response.Response{data=model.Message}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	target, err := service.ParseTarget(req.RecipientID, req.GroupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), middleware.GetUserID(c), target, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// List 消息列表
// @Summary      消息列表
// @Description  私聊（?peerId=）或群聊（?groupId=）消息，二选一，时间升序
// @Tags         消息
// @Produce      json
// @Security     BearerAuth
// @Param        peerId  query int false "对端用户ID"
// @Param        groupId query int false "群组ID"
// @Success      200  {object}  response.Response{data=[]model.Message}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	peerID := parseIDQuery(c, "peerId")
	groupID := parseIDQuery(c, "groupId")

	target, err := service.ParseTarget(peerID, groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var messages []*model.Message
	if target.IsGroup() {
		messages, err = h.messageService.ListGroup(c.Request.Context(), middleware.GetUserID(c), groupID)
	} else {
		messages, err = h.messageService.ListPrivate(c.Request.Context(), middleware.GetUserID(c), peerID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, messages)
}

// MarkRead 标记已读
// @Summary      标记消息已读
// @Description  私聊仅接收者可标记，群聊任何成员可标记，幂等
// @Tags         消息
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "消息ID"
// @Success      200  {object}  response.Response{data=model.Message}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /messages/{id}/read [patch]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的消息ID")
		return
	}

	msg, err := h.messageService.MarkRead(c.Request.Context(), middleware.GetUserID(c), messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}
