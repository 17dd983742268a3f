package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
	"murmur.chat.web/pkg/snowflake"
)

// AdminService 管理端治理操作
// 用户与群组为可逆软删除；群主删群走 GroupService 的不可逆级联，两者语义有意不同
type AdminService struct {
	userRepo         *repository.UserRepository
	groupRepo        *repository.GroupRepository
	messageRepo      *repository.MessageRepository
	tokenRepo        *repository.TokenRepository
	announcementRepo *repository.AnnouncementRepository
	publisher        EventPublisher
	snowflake        *snowflake.Node
	logger           *slog.Logger
}

// NewAdminService 创建管理服务
func NewAdminService(
	userRepo *repository.UserRepository,
	groupRepo *repository.GroupRepository,
	messageRepo *repository.MessageRepository,
	tokenRepo *repository.TokenRepository,
	announcementRepo *repository.AnnouncementRepository,
	publisher EventPublisher,
	sf *snowflake.Node,
) *AdminService {
	return &AdminService{
		userRepo:         userRepo,
		groupRepo:        groupRepo,
		messageRepo:      messageRepo,
		tokenRepo:        tokenRepo,
		announcementRepo: announcementRepo,
		publisher:        publisher,
		snowflake:        sf,
		logger:           slog.Default(),
	}
}

// ListUsers 用户列表（管理视图，含角色与启用状态，排除已删除）
func (s *AdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return users, nil
}

// ListGroups 群组列表（管理视图，排除已删除）
func (s *AdminService) ListGroups(ctx context.Context) ([]*model.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return groups, nil
}

// DeleteUser 软删除用户并吊销其登录态
func (s *AdminService) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.SoftDelete(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}

	if err := s.tokenRepo.DeleteOldToken(ctx, userID); err != nil {
		s.logger.Warn("Failed to revoke tokens of deleted user", "userId", userID, "error", err)
	}

	s.logger.Info("User soft deleted", "userId", user.ID, "username", user.Username)
	return nil
}

// RestoreUser 恢复软删除的用户
func (s *AdminService) RestoreUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.Restore(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	return nil
}

// SetUserActive 启用/停用用户；停用同时吊销登录态
func (s *AdminService) SetUserActive(ctx context.Context, userID int64, active bool) error {
	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	if !active {
		if err := s.tokenRepo.DeleteOldToken(ctx, userID); err != nil {
			s.logger.Warn("Failed to revoke tokens of disabled user", "userId", userID, "error", err)
		}
	}
	return nil
}

// SetGroupActive 启用/停用群组
func (s *AdminService) SetGroupActive(ctx context.Context, groupID int64, active bool) error {
	if err := s.groupRepo.SetActive(ctx, groupID, active); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return appErrors.ErrGroupNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	return nil
}

// DeleteGroup 软删除群组：群从列表与路由中消失，消息账本保留
func (s *AdminService) DeleteGroup(ctx context.Context, groupID int64) error {
	if err := s.groupRepo.SoftDelete(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return appErrors.ErrGroupNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	s.logger.Info("Group soft deleted", "groupId", groupID)
	return nil
}

// RestoreGroup 恢复软删除的群组
func (s *AdminService) RestoreGroup(ctx context.Context, groupID int64) error {
	if err := s.groupRepo.Restore(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return appErrors.ErrGroupNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	return nil
}

// DeletePrivateChat 批量软删除两用户间的全部私聊消息，返回受影响条数
// 幂等：重复执行影响 0 条
func (s *AdminService) DeletePrivateChat(ctx context.Context, userAID, userBID int64) (int64, error) {
	count, err := s.messageRepo.SoftDeletePrivatePair(ctx, userAID, userBID)
	if err != nil {
		return 0, appErrors.ErrDBError.Wrap(err)
	}
	s.logger.Info("Private chat purged", "userA", userAID, "userB", userBID, "count", count)
	return count, nil
}

// CreateAnnouncement 发布系统公告并广播事件
func (s *AdminService) CreateAnnouncement(ctx context.Context, authorID int64, title, content string) (*model.Announcement, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, appErrors.ErrInvalidParams.WithMessage("标题和内容不能为空")
	}

	a := &model.Announcement{
		ID:       s.snowflake.Generate().Int64(),
		Title:    title,
		Content:  content,
		AuthorID: authorID,
	}
	if err := s.announcementRepo.Create(ctx, a); err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAnnouncement(a); err != nil {
			s.logger.Warn("Failed to publish announcement event", "announcementId", a.ID, "error", err)
		}
	}
	return a, nil
}

// ListAnnouncements 公告列表，创建时间倒序
func (s *AdminService) ListAnnouncements(ctx context.Context) ([]*model.Announcement, error) {
	announcements, err := s.announcementRepo.List(ctx)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return announcements, nil
}

// DeleteAnnouncement 删除公告
func (s *AdminService) DeleteAnnouncement(ctx context.Context, id int64) error {
	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAnnouncementNotFound) {
			return appErrors.ErrInvalidParams.WithMessage("公告不存在")
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	return nil
}
