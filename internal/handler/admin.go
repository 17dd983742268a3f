package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// AdminHandler 管理端处理器
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// SetActiveRequest 启用状态变更请求
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// PurgeChatRequest 私聊清理请求
type PurgeChatRequest struct {
	UserAID int64 `json:"userAId" binding:"required"`
	UserBID int64 `json:"userBId" binding:"required"`
}

// CreateAnnouncementRequest 发布公告请求
type CreateAnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ListUsers 用户列表（管理视图）
// @Summary      用户列表（管理）
// @Description  含角色与启用状态，排除已删除
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.User}
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// ListGroups 群组列表（管理视图）
// @Summary      群组列表（管理）
// @Description  含启用状态，排除已删除
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Group}
// @Router       /admin/groups [get]
func (h *AdminHandler) ListGroups(c *gin.Context) {
	groups, err := h.adminService.ListGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, groups)
}

// DeleteUser 软删除用户
// @Summary      删除用户
// @Description  软删除用户并吊销其登录态，可恢复
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RestoreUser 恢复用户
// @Summary      恢复用户
// @Description  恢复软删除的用户并重新启用
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Success      200  {object}  response.Response
// @Router       /admin/users/{id}/restore [patch]
func (h *AdminHandler) RestoreUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	if err := h.adminService.RestoreUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// SetUserActive 启用/停用用户
// @Summary      启用或停用用户
// @Description  停用同时吊销登录态
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int              true "用户ID"
// @Param        request body SetActiveRequest true "启用状态"
// @Success      200  {object}  response.Response
// @Router       /admin/users/{id}/activate [patch]
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的用户ID")
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.adminService.SetUserActive(c.Request.Context(), userID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DeleteGroup 软删除群组
// @Summary      删除群组（管理）
// @Description  软删除群组，消息账本保留，可恢复
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response
// @Router       /admin/groups/{id} [delete]
func (h *AdminHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	if err := h.adminService.DeleteGroup(c.Request.Context(), groupID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RestoreGroup 恢复群组
// @Summary      恢复群组
// @Description  恢复软删除的群组
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "群组ID"
// @Success      200  {object}  response.Response
// @Router       /admin/groups/{id}/restore [patch]
func (h *AdminHandler) RestoreGroup(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}

	if err := h.adminService.RestoreGroup(c.Request.Context(), groupID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// SetGroupActive 启用/停用群组
// @Summary      启用或停用群组
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int              true "群组ID"
// @Param        request body SetActiveRequest true "启用状态"
// @Success      200  {object}  response.Response
// @Router       /admin/groups/{id}/activate [patch]
func (h *AdminHandler) SetGroupActive(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的群组ID")
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.adminService.SetGroupActive(c.Request.Context(), groupID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// PurgePrivateChat 清理私聊记录
// @Summary      清理私聊记录
// @Description  批量软删除两用户间的全部私聊消息，返回条数
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PurgeChatRequest true "用户对"
// @Success      200  {object}  response.Response{data=object{count=int64}}
// @Router       /admin/chats [delete]
func (h *AdminHandler) PurgePrivateChat(c *gin.Context) {
	var req PurgeChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	count, err := h.adminService.DeletePrivateChat(c.Request.Context(), req.UserAID, req.UserBID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// CreateAnnouncement 发布公告
// @Summary      发布公告
// @Description  发布系统公告并广播
// @Tags         管理
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateAnnouncementRequest true "公告内容"
// @Success      201  {object}  response.Response{data=model.Announcement}
// @Router       /admin/announcements [post]
func (h *AdminHandler) CreateAnnouncement(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	a, err := h.adminService.CreateAnnouncement(c.Request.Context(), middleware.GetUserID(c), req.Title, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// ListAnnouncements 公告列表
// @Summary      公告列表
// @Description  系统公告，创建时间倒序
// @Tags         公告
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Announcement}
// @Router       /announcements [get]
func (h *AdminHandler) ListAnnouncements(c *gin.Context) {
	announcements, err := h.adminService.ListAnnouncements(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, announcements)
}

// DeleteAnnouncement 删除公告
// @Summary      删除公告
// @Tags         管理
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "公告ID"
// @Success      200  {object}  response.Response
// @Router       /admin/announcements/{id} [delete]
func (h *AdminHandler) DeleteAnnouncement(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的公告ID")
		return
	}

	if err := h.adminService.DeleteAnnouncement(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
