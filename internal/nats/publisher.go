package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"murmur.chat.web/internal/model"
)

// NATS Subject 常量定义
const (
	// SubjectUserPrefix 私聊消息下行 Subject 前缀，完整格式: chat.user.{user_id}
	SubjectUserPrefix = "chat.user."

	// SubjectGroupPrefix 群聊消息下行 Subject 前缀，完整格式: chat.group.{group_id}
	SubjectGroupPrefix = "chat.group."

	// SubjectBroadcast 系统公告广播
	SubjectBroadcast = "chat.broadcast"
)

// BuildUserSubject 构建用户下行 Subject
func BuildUserSubject(userID int64) string {
	return fmt.Sprintf("%s%d", SubjectUserPrefix, userID)
}

// BuildGroupSubject 构建群组下行 Subject
func BuildGroupSubject(groupID int64) string {
	return fmt.Sprintf("%s%d", SubjectGroupPrefix, groupID)
}

// MessagePublisher 消息事件发布器
// 消息写入成功后发布事件；订阅方（轮询端点或推送通道）是解耦的消费者
type MessagePublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewMessagePublisher 创建消息事件发布器
func NewMessagePublisher(nc *nats.Conn) *MessagePublisher {
	return &MessagePublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishMessage 发布新消息事件
// 私聊发往收发双方的用户 Subject，群聊发往群组 Subject
func (p *MessagePublisher) PublishMessage(msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to marshal message event", "error", err)
		return err
	}

	if msg.GroupID != nil {
		return p.publish(BuildGroupSubject(*msg.GroupID), data)
	}

	if err := p.publish(BuildUserSubject(msg.SenderID), data); err != nil {
		return err
	}
	if msg.RecipientID != nil {
		return p.publish(BuildUserSubject(*msg.RecipientID), data)
	}
	return nil
}

// PublishAnnouncement 广播系统公告事件
func (p *MessagePublisher) PublishAnnouncement(a *model.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		p.logger.Error("Failed to marshal announcement event", "error", err)
		return err
	}
	return p.publish(SubjectBroadcast, data)
}

func (p *MessagePublisher) publish(subject string, data []byte) error {
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "subject", subject, "error", err)
		return err
	}
	p.logger.Debug("Published event", "subject", subject)
	return nil
}
