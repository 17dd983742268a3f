package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"murmur.chat.web/internal/jwt"
	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
	"murmur.chat.web/pkg/snowflake"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Name     string `json:"name" binding:"required,min=1,max=50"`
	Email    string `json:"email"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthService 认证服务
// 核心业务不做认证，只信任这里换发的数字用户 ID
type AuthService struct {
	userRepo   *repository.UserRepository
	tokenRepo  *repository.TokenRepository
	jwtService *jwt.Service
	snowflake  *snowflake.Node
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, tokenRepo *repository.TokenRepository, jwtService *jwt.Service, sf *snowflake.Node) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		snowflake:  sf,
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	if exists {
		return nil, appErrors.ErrUsernameExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.ErrServerError.Wrap(err)
	}

	user := &model.User{
		ID:           s.snowflake.Generate().Int64(),
		Username:     req.Username,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	return user, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, appErrors.ErrUserDisabled
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, appErrors.ErrServerError.Wrap(err)
	}

	// 重新登录时清理旧 Token
	if err := s.tokenRepo.DeleteOldToken(ctx, user.ID); err != nil {
		return nil, appErrors.ErrServerError.Wrap(err)
	}

	userInfo := &repository.UserTokenInfo{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	}
	if err := s.tokenRepo.SaveToken(ctx, userInfo, tokenPair.AccessToken, s.jwtService.GetAccessExpire()); err != nil {
		return nil, appErrors.ErrServerError.Wrap(err)
	}

	return &LoginResponse{
		UserID:       user.ID,
		Name:         user.Name,
		Role:         user.Role,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
	}, nil
}

// Logout 用户登出，Token 失效
func (s *AuthService) Logout(ctx context.Context, userID int64, accessToken string) error {
	if err := s.tokenRepo.DeleteToken(ctx, userID, accessToken); err != nil {
		return appErrors.ErrServerError.Wrap(err)
	}
	return nil
}
