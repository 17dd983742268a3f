package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含业务错误码、HTTP 状态码和错误消息
type AppError struct {
	Code    int    // 业务错误码
	Status  int    // HTTP 状态码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按业务错误码比较，Wrap/WithMessage 的派生错误与原错误视为同一错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// NewError 创建新错误
func NewError(code, status int, message string) *AppError {
	return &AppError{
		Code:    code,
		Status:  status,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Status:  e.Status,
		Message: e.Message,
		Err:     err,
	}
}

// WithMessage 替换错误消息，错误码不变
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Status:  e.Status,
		Message: message,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取业务错误码，如果不是 AppError 返回服务器错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetStatus 获取 HTTP 状态码，默认 500
func GetStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeUsernameExists     = 10001
	CodeInvalidCredentials = 10002
	CodeTokenInvalid       = 10003
	CodeTokenExpired       = 10004
	CodeUserDisabled       = 10005
	CodeNotAdmin           = 10006

	// 用户相关 11000-11999
	CodeUserNotFound  = 11001
	CodeInvalidParams = 11002

	// 群组相关 13000-13999
	CodeGroupNotFound       = 13001
	CodeNotGroupMember      = 13002
	CodeCreatorCannotLeave  = 13003
	CodeNotGroupCreator     = 13004
	CodeJoinRequestNotFound = 13005
	CodeGroupNameRequired   = 13006
	CodeMembershipNotFound  = 13007

	// 消息相关 14000-14999
	CodeMessageNotFound  = 14001
	CodeMessageForbidden = 14002
	CodeMessageTarget    = 14003
	CodeContentRequired  = 14004

	// 系统错误 50000-50999
	CodeServerError = 50001
	CodeDBError     = 50002
	CodeConflict    = 50003
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrUsernameExists     = NewError(CodeUsernameExists, http.StatusBadRequest, "用户名已存在")
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, http.StatusUnauthorized, "用户名或密码错误")
	ErrTokenInvalid       = NewError(CodeTokenInvalid, http.StatusUnauthorized, "Token 无效")
	ErrTokenExpired       = NewError(CodeTokenExpired, http.StatusUnauthorized, "Token 已过期")
	ErrUserDisabled       = NewError(CodeUserDisabled, http.StatusForbidden, "用户已被禁用")
	ErrNotAdmin           = NewError(CodeNotAdmin, http.StatusForbidden, "需要管理员权限")
)

// 用户相关
var (
	ErrUserNotFound  = NewError(CodeUserNotFound, http.StatusNotFound, "用户不存在")
	ErrInvalidParams = NewError(CodeInvalidParams, http.StatusBadRequest, "参数校验失败")
)

// 群组相关
var (
	ErrGroupNotFound       = NewError(CodeGroupNotFound, http.StatusNotFound, "群组不存在")
	ErrNotGroupMember      = NewError(CodeNotGroupMember, http.StatusForbidden, "不是群组成员")
	ErrCreatorCannotLeave  = NewError(CodeCreatorCannotLeave, http.StatusBadRequest, "群主不能退出群组")
	ErrNotGroupCreator     = NewError(CodeNotGroupCreator, http.StatusForbidden, "只有群主可以执行此操作")
	ErrJoinRequestNotFound = NewError(CodeJoinRequestNotFound, http.StatusNotFound, "入群申请不存在")
	ErrGroupNameRequired   = NewError(CodeGroupNameRequired, http.StatusBadRequest, "群组名称不能为空")
	ErrMembershipNotFound  = NewError(CodeMembershipNotFound, http.StatusNotFound, "不在群组中")
)

// 消息相关
var (
	ErrMessageNotFound  = NewError(CodeMessageNotFound, http.StatusNotFound, "消息不存在")
	ErrMessageForbidden = NewError(CodeMessageForbidden, http.StatusForbidden, "无权操作此消息")
	ErrMessageTarget    = NewError(CodeMessageTarget, http.StatusBadRequest, "必须且只能指定一个接收方")
	ErrContentRequired  = NewError(CodeContentRequired, http.StatusBadRequest, "消息内容不能为空")
)

// 系统相关
var (
	ErrServerError = NewError(CodeServerError, http.StatusInternalServerError, "服务器内部错误")
	ErrDBError     = NewError(CodeDBError, http.StatusInternalServerError, "数据库错误")
	ErrConflict    = NewError(CodeConflict, http.StatusConflict, "资源冲突")
)
