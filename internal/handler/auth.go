package handler

import (
	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/middleware"
	"murmur.chat.web/internal/service"
	"murmur.chat.web/pkg/response"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register 用户注册
// @Summary      用户注册
// @Description  创建新用户账号
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body service.RegisterRequest true "注册信息"
// @Success      201  {object}  response.Response{data=model.UserBrief}
// @Failure      409  {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"name":     user.Name,
	})
}

// Login 用户登录
// @Summary      用户登录
// @Description  校验凭证并签发 Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body service.LoginRequest true "登录信息"
// @Success      200  {object}  response.Response{data=service.LoginResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// Logout 用户登出
// @Summary      用户登出
// @Description  吊销当前 Token
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	accessToken := middleware.GetAccessToken(c)

	if err := h.authService.Logout(c.Request.Context(), userID, accessToken); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
