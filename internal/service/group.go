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

// GroupService 群组与成员服务
type GroupService struct {
	groupRepo *repository.GroupRepository
	snowflake *snowflake.Node
	logger    *slog.Logger
}

// NewGroupService 创建群组服务
func NewGroupService(groupRepo *repository.GroupRepository, sf *snowflake.Node) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		snowflake: sf,
		logger:    slog.Default(),
	}
}

// CreateGroup 创建群组
// 群组与创建者成员记录在同一事务内写入：创建者始终是成员
func (s *GroupService) CreateGroup(ctx context.Context, creatorID int64, name string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.ErrGroupNameRequired
	}

	group := &model.Group{
		ID:        s.snowflake.Generate().Int64(),
		Name:      name,
		CreatorID: creatorID,
		IsActive:  true,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	s.logger.Info("Group created", "groupId", group.ID, "creatorId", creatorID)
	return group, nil
}

// ListGroups 列出全部未删除的群组
func (s *GroupService) ListGroups(ctx context.Context) ([]*model.Group, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return groups, nil
}

// AddMember 添加群成员
// 请求者必须是群主或现有成员；目标已是成员时幂等返回既有记录
func (s *GroupService) AddMember(ctx context.Context, groupID, requesterID, targetUserID int64) (*model.GroupMember, bool, error) {
	if err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, false, err
	}

	existing, err := s.groupRepo.GetMember(ctx, groupID, targetUserID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrMembershipNotFound) {
		return nil, false, appErrors.ErrDBError.Wrap(err)
	}

	// 唯一约束是并发添加的最终裁决，冲突被吸收为成功
	if err := s.groupRepo.AddMember(ctx, groupID, targetUserID); err != nil {
		return nil, false, appErrors.ErrDBError.Wrap(err)
	}

	member, err := s.groupRepo.GetMember(ctx, groupID, targetUserID)
	if err != nil {
		return nil, false, appErrors.ErrDBError.Wrap(err)
	}
	return member, true, nil
}

// ListMembers 列出群成员，按加入顺序
func (s *GroupService) ListMembers(ctx context.Context, groupID, requesterID int64) ([]model.UserBrief, error) {
	if err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return members, nil
}

// Leave 退出群组
// 群主不能退出：这是业务规则拒绝（400），不是授权失败（403）
func (s *GroupService) Leave(ctx context.Context, groupID, userID int64) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID == userID {
		return appErrors.ErrCreatorCannotLeave
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return appErrors.ErrMembershipNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}
	return nil
}

// DeleteGroup 删除群组，仅群主可操作
// 硬删除：消息、成员、入群申请、群组本体级联物理删除，不可逆
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, requesterID int64) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != requesterID {
		return appErrors.ErrNotGroupCreator
	}

	if err := s.groupRepo.HardDelete(ctx, groupID); err != nil {
		return appErrors.ErrDBError.Wrap(err)
	}

	s.logger.Info("Group hard-deleted", "groupId", groupID, "creatorId", requesterID)
	return nil
}

// getGroup 获取群组，不存在返回 AppError
func (s *GroupService) getGroup(ctx context.Context, groupID int64) (*model.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, appErrors.ErrGroupNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return group, nil
}

// requireMember 校验请求者是群主或现有成员
func (s *GroupService) requireMember(ctx context.Context, groupID, requesterID int64) error {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID == requesterID {
		return nil
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return appErrors.ErrDBError.Wrap(err)
	}
	if !isMember {
		return appErrors.ErrNotGroupMember
	}
	return nil
}
