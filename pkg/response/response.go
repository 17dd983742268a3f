package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "murmur.chat.web/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    appErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    appErrors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应，HTTP 状态码和业务码来自 AppError
func Error(c *gin.Context, err error) {
	c.JSON(appErrors.GetStatus(err), Response{
		Code:    appErrors.GetCode(err),
		Message: appErrors.GetMessage(err),
		Data:    nil,
	})
}

// BadRequest 参数校验失败，附带具体原因
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    appErrors.CodeInvalidParams,
		Message: message,
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    appErrors.CodeTokenInvalid,
		Message: appErrors.ErrTokenInvalid.Message,
		Data:    nil,
	})
}

// ServerError 未预期的内部错误，不向客户端泄露细节
func ServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    appErrors.CodeServerError,
		Message: appErrors.ErrServerError.Message,
		Data:    nil,
	})
}
