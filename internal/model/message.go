package model

import "time"

// Message 消息实体
// RecipientID 与 GroupID 必须恰好一个非空（私聊或群聊），由目标类型在入口处保证
// 内容创建后不可变，之后只允许设置 read_at / deleted_at
type Message struct {
	ID          int64      `json:"id" db:"id"`
	SenderID    int64      `json:"senderId" db:"sender_id"`
	RecipientID *int64     `json:"recipientId,omitempty" db:"recipient_id"`
	GroupID     *int64     `json:"groupId,omitempty" db:"group_id"`
	Content     string     `json:"content" db:"content"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	DeliveredAt time.Time  `json:"deliveredAt" db:"delivered_at"`
	ReadAt      *time.Time `json:"readAt,omitempty" db:"read_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`
}

// IsPrivate 是否私聊消息
func (m *Message) IsPrivate() bool {
	return m.RecipientID != nil
}

// PeerOf 私聊消息中相对 userId 的对端
func (m *Message) PeerOf(userID int64) int64 {
	if m.SenderID == userID && m.RecipientID != nil {
		return *m.RecipientID
	}
	return m.SenderID
}
