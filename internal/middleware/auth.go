package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"murmur.chat.web/internal/jwt"
	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
	"murmur.chat.web/pkg/response"
)

const (
	ctxUserID      = "user_id"
	ctxUserRole    = "user_role"
	ctxAccessToken = "access_token"
)

// TokenStore 认证中间件所需的 Token 存取能力
type TokenStore interface {
	GetUserInfoByToken(ctx context.Context, accessToken string) (*repository.UserTokenInfo, error)
	GetTokenTTL(ctx context.Context, accessToken string) (time.Duration, error)
	RefreshTokenExpire(ctx context.Context, userID int64, accessToken string, expiration time.Duration) error
}

// TokenAuth Token 认证中间件
// JWT 校验签名与过期，Redis 校验登录态（登出/顶号后立即失效）
// 剩余 TTL 低于一半时滑动续期
func TokenAuth(jwtService *jwt.Service, store TokenStore) gin.HandlerFunc {
	accessExpire := jwtService.GetAccessExpire()
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Error(c, appErrors.ErrTokenExpired)
			} else {
				response.Error(c, appErrors.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		userInfo, err := store.GetUserInfoByToken(c.Request.Context(), token)
		if err != nil {
			response.ServerError(c)
			c.Abort()
			return
		}
		if userInfo == nil || userInfo.UserID != claims.UserID {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		if ttl, err := store.GetTokenTTL(c.Request.Context(), token); err == nil && ttl > 0 && ttl < accessExpire/2 {
			_ = store.RefreshTokenExpire(c.Request.Context(), userInfo.UserID, token, accessExpire)
		}

		c.Set(ctxUserID, userInfo.UserID)
		c.Set(ctxUserRole, userInfo.Role)
		c.Set(ctxAccessToken, token)
		c.Next()
	}
}

// AdminOnly 管理端路由守卫，要求已通过 TokenAuth 且角色为 admin
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != model.RoleAdmin {
			response.Error(c, appErrors.ErrNotAdmin)
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken 从 Authorization header 提取 token
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// GetUserID 从 context 获取 user_id
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetUserRole 从 context 获取用户角色
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get(ctxUserRole)
	if !exists {
		return ""
	}
	return role.(string)
}

// GetAccessToken 从 context 获取当前请求的 access token
func GetAccessToken(c *gin.Context) string {
	token, exists := c.Get(ctxAccessToken)
	if !exists {
		return ""
	}
	return token.(string)
}
