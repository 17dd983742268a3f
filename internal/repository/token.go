package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// tokenUserPrefix 用户Token前缀: user:token:{user_id} -> accessToken
	tokenUserPrefix = "user:token:"
	// tokenInfoPrefix Token信息前缀: token:info:{accessToken} -> userInfo JSON
	tokenInfoPrefix = "token:info:"
)

// UserTokenInfo 存储在 Redis 中的用户信息
// 身份边界只向核心传递 UserID，Role 供管理端路由守卫使用
type UserTokenInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// TokenRepository Token 数据访问层
type TokenRepository struct {
	rdb *redis.Client
}

// NewTokenRepository 创建 Token Repository
func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{rdb: rdb}
}

func buildUserTokenKey(userID int64) string {
	return fmt.Sprintf("%s%d", tokenUserPrefix, userID)
}

func buildTokenInfoKey(accessToken string) string {
	return tokenInfoPrefix + accessToken
}

// SaveToken 保存 Token 到 Redis
// 1. user:token:{user_id} -> accessToken
// 2. token:info:{accessToken} -> userInfo JSON
func (r *TokenRepository) SaveToken(ctx context.Context, userInfo *UserTokenInfo, accessToken string, expiration time.Duration) error {
	userTokenKey := buildUserTokenKey(userInfo.UserID)
	tokenInfoKey := buildTokenInfoKey(accessToken)

	userInfoJSON, err := json.Marshal(userInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal user info: %w", err)
	}

	pipe := r.rdb.Pipeline()
	pipe.Set(ctx, userTokenKey, accessToken, expiration)
	pipe.Set(ctx, tokenInfoKey, userInfoJSON, expiration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetUserInfoByToken 根据 Token 获取用户信息，不存在返回 nil
func (r *TokenRepository) GetUserInfoByToken(ctx context.Context, accessToken string) (*UserTokenInfo, error) {
	key := buildTokenInfoKey(accessToken)
	data, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var userInfo UserTokenInfo
	if err := json.Unmarshal([]byte(data), &userInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user info: %w", err)
	}
	return &userInfo, nil
}

// DeleteToken 删除 Token（登出时使用）
func (r *TokenRepository) DeleteToken(ctx context.Context, userID int64, accessToken string) error {
	pipe := r.rdb.Pipeline()
	pipe.Del(ctx, buildTokenInfoKey(accessToken))
	pipe.Del(ctx, buildUserTokenKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteOldToken 删除旧 Token（重新登录时清理）
func (r *TokenRepository) DeleteOldToken(ctx context.Context, userID int64) error {
	userTokenKey := buildUserTokenKey(userID)
	oldToken, err := r.rdb.Get(ctx, userTokenKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return r.rdb.Del(ctx, buildTokenInfoKey(oldToken)).Err()
}

// GetTokenTTL 获取 Token 的剩余过期时间
func (r *TokenRepository) GetTokenTTL(ctx context.Context, accessToken string) (time.Duration, error) {
	return r.rdb.TTL(ctx, buildTokenInfoKey(accessToken)).Result()
}

// RefreshTokenExpire 刷新 Token 的过期时间（滑动续期）
func (r *TokenRepository) RefreshTokenExpire(ctx context.Context, userID int64, accessToken string, expiration time.Duration) error {
	pipe := r.rdb.Pipeline()
	pipe.Expire(ctx, buildUserTokenKey(userID), expiration)
	pipe.Expire(ctx, buildTokenInfoKey(accessToken), expiration)
	_, err := pipe.Exec(ctx)
	return err
}
