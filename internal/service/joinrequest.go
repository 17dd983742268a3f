package service

import (
	"context"
	"errors"
	"log/slog"

	"murmur.chat.web/internal/model"
	"murmur.chat.web/internal/repository"
	appErrors "murmur.chat.web/pkg/errors"
	"murmur.chat.web/pkg/snowflake"
)

// JoinResult 入群申请结果
// Created 表示本次调用新建了申请，用于区分 201/200
type JoinResult struct {
	Status  string                  `json:"status"`
	Request *model.GroupJoinRequest `json:"request,omitempty"`
	Created bool                    `json:"-"`
}

// JoinRequestService 入群申请工作流
// 状态机 none -> pending -> approved；没有 rejected 状态
type JoinRequestService struct {
	requestRepo *repository.JoinRequestRepository
	groupRepo   *repository.GroupRepository
	snowflake   *snowflake.Node
	logger      *slog.Logger
}

// NewJoinRequestService 创建入群申请服务
func NewJoinRequestService(requestRepo *repository.JoinRequestRepository, groupRepo *repository.GroupRepository, sf *snowflake.Node) *JoinRequestService {
	return &JoinRequestService{
		requestRepo: requestRepo,
		groupRepo:   groupRepo,
		snowflake:   sf,
		logger:      slog.Default(),
	}
}

// RequestJoin 申请加入群组
// 已是成员直接返回 member，不创建申请；已有申请原样返回，无论状态——
// 任何时刻 (groupId, userId) 至多一条申请
func (s *JoinRequestService) RequestJoin(ctx context.Context, groupID, userID int64) (*JoinResult, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	if isMember {
		return &JoinResult{Status: model.JoinStatusMember}, nil
	}

	req := &model.GroupJoinRequest{
		ID:      s.snowflake.Generate().Int64(),
		GroupID: groupID,
		UserID:  userID,
		Status:  model.JoinStatusPending,
	}
	existing, created, err := s.requestRepo.CreateIfAbsent(ctx, req)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	if created {
		s.logger.Info("Join request created", "groupId", groupID, "userId", userID)
	}
	return &JoinResult{Status: existing.Status, Request: existing, Created: created}, nil
}

// Status 查询用户相对群组的状态：member / pending / approved / none
// 成员身份优先于任何已存申请的状态
func (s *JoinRequestService) Status(ctx context.Context, groupID, userID int64) (string, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return "", err
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return "", appErrors.ErrDBError.Wrap(err)
	}
	if isMember {
		return model.JoinStatusMember, nil
	}

	req, err := s.requestRepo.Get(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrJoinRequestNotFound) {
			return model.JoinStatusNone, nil
		}
		return "", appErrors.ErrDBError.Wrap(err)
	}
	return req.Status, nil
}

// Approve 批准入群申请
// 任何成员（含群主）都可批准：集体审核。申请必须存在。
// 目标已是成员（与直接添加产生竞争）时跳过成员插入，但仍把申请置为 approved；
// 成员唯一约束是并发批准下的最终裁决
func (s *JoinRequestService) Approve(ctx context.Context, groupID, approverID, targetUserID int64) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != approverID {
		isMember, err := s.groupRepo.IsMember(ctx, groupID, approverID)
		if err != nil {
			return appErrors.ErrDBError.Wrap(err)
		}
		if !isMember {
			return appErrors.ErrNotGroupMember
		}
	}

	req, err := s.requestRepo.Get(ctx, groupID, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrJoinRequestNotFound) {
			return appErrors.ErrJoinRequestNotFound
		}
		return appErrors.ErrDBError.Wrap(err)
	}

	alreadyMember, err := s.groupRepo.IsMember(ctx, groupID, targetUserID)
	if err != nil {
		return appErrors.ErrDBError.Wrap(err)
	}
	if !alreadyMember {
		if err := s.groupRepo.AddMember(ctx, groupID, targetUserID); err != nil {
			return appErrors.ErrDBError.Wrap(err)
		}
	}

	if err := s.requestRepo.UpdateStatus(ctx, req.ID, model.JoinStatusApproved); err != nil {
		return appErrors.ErrDBError.Wrap(err)
	}

	s.logger.Info("Join request approved",
		"groupId", groupID,
		"approverId", approverID,
		"targetUserId", targetUserID)
	return nil
}

// ListRequests 列出群组的入群申请，创建时间倒序，可按状态过滤
func (s *JoinRequestService) ListRequests(ctx context.Context, groupID, requesterID int64, statusFilter string) ([]*model.JoinRequestWithUser, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != requesterID {
		isMember, err := s.groupRepo.IsMember(ctx, groupID, requesterID)
		if err != nil {
			return nil, appErrors.ErrDBError.Wrap(err)
		}
		if !isMember {
			return nil, appErrors.ErrNotGroupMember
		}
	}

	requests, err := s.requestRepo.ListByGroup(ctx, groupID, statusFilter)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return requests, nil
}

func (s *JoinRequestService) findGroup(ctx context.Context, groupID int64) (*model.Group, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, appErrors.ErrGroupNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return group, nil
}
