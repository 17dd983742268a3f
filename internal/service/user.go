package service

import (
	"context"
	"errors"
	"strings"

	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
)

// UserService 用户服务
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List 列出可发起私聊的用户（排除软删除）
func (s *UserService) List(ctx context.Context) ([]model.UserBrief, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	briefs := make([]model.UserBrief, 0, len(users))
	for _, u := range users {
		briefs = append(briefs, model.UserBrief{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return briefs, nil
}

// Get 获取指定用户摘要
func (s *UserService) Get(ctx context.Context, id int64) (*model.UserBrief, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return &model.UserBrief{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Profile 当前用户的完整资料
func (s *UserService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return user, nil
}

// UpdateProfile 更新当前用户显示名，返回更新后的资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.ErrInvalidParams.WithMessage("名称不能为空")
	}

	if err := s.userRepo.UpdateName(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return s.Profile(ctx, userID)
}
