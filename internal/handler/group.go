package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// GroupHandler 群组处理器，覆盖群组、成员与入群申请
type GroupHandler struct {
	groupService       *service.GroupService
	joinRequestService *service.JoinRequestService
}

// NewGroupHandler 创建群组处理器
func NewGroupHandler(groupService *service.GroupService, joinRequestService *service.JoinRequestService) *GroupHandler {
	return &GroupHandler{
		groupService:       groupService,
		joinRequestService: joinRequestService,
	}
}

// CreateGroupRequest 建群请求
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// Create 创建群组
// @Summary      创建群组
// @Description  创建群组，创建者自动成为首位成员
// @Tags         群组
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGroupRequest true "群组信息"
// @Success      201  {object}  response.Response{data=model.Group}
// @Router       /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), middleware.GetUserID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// List 群组列表
// @Summary      群组列表
// @Description  列出全部未删除群组
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Group}
// @Router       /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, groups)
}

// AddMember 添加成员
// @Summary      添加成员
// @Description  现有成员将用户拉入群组，幂等
// @Tags         群组
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path int              true "群组ID"
// @Param        request  body AddMemberRequest true "目标用户"
// @Success      200  {object}  response.Response{data=model.GroupMember}
// @Failure      403  {object}  response.Response
// @Router       /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, created, err := h.groupService.AddMember(c.Request.Context(), groupID, middleware.GetUserID(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, member)
		return
	}
	response.Success(c, member)
}

// ListMembers 成员列表
// @Summary      成员列表
// @Description  按加入时间升序列出群成员，仅成员可见
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response{data=[]model.UserBrief}
// @Failure      403  {object}  response.Response
// @Router       /groups/{id}/members [get]
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	members, err := h.groupService.ListMembers(c.Request.Context(), groupID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// Leave 退出群组
// @Summary      退出群组
// @Description  成员主动退群，创建者不可退出
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /groups/{id}/leave [post]
func (h *GroupHandler) Leave(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	if err := h.groupService.Leave(c.Request.Context(), groupID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete 删除群组
// @Summary      删除群组
// @Description  创建者不可逆删除群组，级联清除消息、成员与申请
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), groupID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RequestJoin 申请入群
// @Summary      申请入群
// @Description  提交入群申请，幂等；已是成员直接返回 member 状态
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response{data=service.JoinResult}
// @Router       /groups/{id}/join [post]
func (h *GroupHandler) RequestJoin(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	result, err := h.joinRequestService.RequestJoin(c.Request.Context(), groupID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.Success(c, result)
}

// JoinStatus 查询自己的入群状态
// @Summary      入群状态
// @Description  查询当前用户在群中的状态：member / pending / approved / none
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response{data=object{status=string}}
// @Router       /groups/{id}/join/status [get]
func (h *GroupHandler) JoinStatus(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	status, err := h.joinRequestService.Status(c.Request.Context(), groupID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// ListJoinRequests 入群申请列表
// @Summary      入群申请列表
// @Description  列出群的入群申请，可按状态过滤，仅成员可见
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  int    true  "群组ID"
// @Param        status query string false "状态过滤 pending/approved"
// @Success      200  {object}  response.Response{data=[]model.JoinRequestWithUser}
// @Failure      403  {object}  response.Response
// @Router       /groups/{id}/requests [get]
func (h *GroupHandler) ListJoinRequests(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	requests, err := h.joinRequestService.ListRequests(c.Request.Context(), groupID, middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// ApproveJoin 批准入群
// @Summary      批准入群申请
// @Description  现有成员批准申请，申请者成为成员，幂等
// @Tags         群组
// @Produce      json
// @Security     BearerAuth
// @Param        id     path int true "群组ID"
// @Param        userId path int true "申请者用户ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /groups/{id}/requests/{userId}/approve [post]
func (h *GroupHandler) ApproveJoin(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}
	targetUserID, ok := parseIDParam(c, "userId")
	if !ok {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	if err := h.joinRequestService.Approve(c.Request.Context(), groupID, middleware.GetUserID(c), targetUserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
