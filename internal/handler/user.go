package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List 用户列表
// @Summary      用户列表
// @Description  列出全部活跃用户，供发起私聊选人
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.UserBrief}
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Get 用户详情
// @Summary      用户详情
// @Description  获取指定用户的摘要信息
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Success      200  {object}  response.Response{data=model.UserBrief}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "无效的用户ID")
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Profile 当前用户资料
// @Summary      当前用户资料
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.User}
// @Router       /profile/me [get]
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateProfile 更新当前用户显示名
// @Summary      更新当前用户资料
// @Tags         用户
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "新显示名"
// @Success      200  {object}  response.Response{data=model.User}
// @Failure      400  {object}  response.Response
// @Router       /profile/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
