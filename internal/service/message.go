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

// Target 消息接收方，私聊或群聊二选一
// 只能通过构造函数创建，"两者皆有或皆无"在结构上不可能
type Target struct {
	recipientID int64
	groupID     int64
}

// PrivateTarget 私聊接收方
func PrivateTarget(recipientID int64) Target {
	return Target{recipientID: recipientID}
}

// GroupTarget 群聊接收方
func GroupTarget(groupID int64) Target {
	return Target{groupID: groupID}
}

// IsGroup 是否群聊目标
func (t Target) IsGroup() bool {
	return t.groupID != 0
}

// Valid 目标是否有效（经构造函数创建）
func (t Target) Valid() bool {
	return (t.recipientID != 0) != (t.groupID != 0)
}

// ParseTarget 从请求字段解析消息接收方
// 必须且只能指定 recipientId / groupId 之一
func ParseTarget(recipientID, groupID int64) (Target, error) {
	if (recipientID != 0) == (groupID != 0) {
		return Target{}, appErrors.ErrMessageTarget
	}
	if groupID != 0 {
		return GroupTarget(groupID), nil
	}
	return PrivateTarget(recipientID), nil
}

// EventPublisher 消息事件发布接口
// 写入成功后调用；实现方（NATS）与存储解耦
type EventPublisher interface {
	PublishMessage(msg *model.Message) error
	PublishAnnouncement(a *model.Announcement) error
}

// MessageService 消息服务
type MessageService struct {
	messageRepo *repository.MessageRepository
	groupRepo   *repository.GroupRepository
	publisher   EventPublisher
	snowflake   *snowflake.Node
	logger      *slog.Logger
}

// NewMessageService 创建消息服务
// publisher 可为 nil（无事件总线部署）
func NewMessageService(messageRepo *repository.MessageRepository, groupRepo *repository.GroupRepository, publisher EventPublisher, sf *snowflake.Node) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		publisher:   publisher,
		snowflake:   sf,
		logger:      slog.Default(),
	}
}

// Send 发送消息
// 群聊要求发送者是现有成员；私聊不做成员校验，任何已认证用户可以私聊任何用户
// delivered_at 随创建写入，read_at 为空
func (s *MessageService) Send(ctx context.Context, senderID int64, target Target, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, appErrors.ErrContentRequired
	}
	if !target.Valid() {
		return nil, appErrors.ErrMessageTarget
	}

	msg := &model.Message{
		ID:       s.snowflake.Generate().Int64(),
		SenderID: senderID,
		Content:  content,
	}

	if target.IsGroup() {
		isMember, err := s.groupRepo.IsMember(ctx, target.groupID, senderID)
		if err != nil {
			return nil, appErrors.ErrDBError.Wrap(err)
		}
		if !isMember {
			return nil, appErrors.ErrNotGroupMember
		}
		msg.GroupID = &target.groupID
	} else {
		msg.RecipientID = &target.recipientID
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	// 写入成功后发布事件；发布失败只记录，不影响请求结果
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(msg); err != nil {
			s.logger.Warn("Failed to publish message event", "msgId", msg.ID, "error", err)
		}
	}

	return msg, nil
}

// ListPrivate 私聊消息列表，(created_at, id) 升序
// 会话对双方可见，无需额外授权
func (s *MessageService) ListPrivate(ctx context.Context, requesterID, peerID int64) ([]*model.Message, error) {
	messages, err := s.messageRepo.ListPrivate(ctx, requesterID, peerID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return messages, nil
}

// ListGroup 群聊消息列表，(created_at, id) 升序，要求请求者是成员
func (s *MessageService) ListGroup(ctx context.Context, requesterID, groupID int64) ([]*model.Message, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, requesterID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	if !isMember {
		return nil, appErrors.ErrNotGroupMember
	}

	messages, err := s.messageRepo.ListGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return messages, nil
}

// MarkRead 标记消息已读
// 私聊仅接收者可标记；群聊任何现有成员可标记（read_at 是消息级共享字段，
// 不是按成员的已读回执）。幂等：已读消息返回原 read_at，不覆盖
func (s *MessageService) MarkRead(ctx context.Context, requesterID, messageID int64) (*model.Message, error) {
	msg, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, appErrors.ErrMessageNotFound
		}
		return nil, appErrors.ErrDBError.Wrap(err)
	}

	if msg.IsPrivate() {
		if *msg.RecipientID != requesterID {
			return nil, appErrors.ErrMessageForbidden
		}
	} else {
		isMember, err := s.groupRepo.IsMember(ctx, *msg.GroupID, requesterID)
		if err != nil {
			return nil, appErrors.ErrDBError.Wrap(err)
		}
		if !isMember {
			return nil, appErrors.ErrMessageForbidden
		}
	}

	if msg.ReadAt != nil {
		return msg, nil
	}

	updated, err := s.messageRepo.MarkRead(ctx, messageID)
	if err != nil {
		return nil, appErrors.ErrDBError.Wrap(err)
	}
	return updated, nil
}
