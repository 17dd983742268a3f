package model

import "time"

// ConversationType 会话类型
const (
	ConversationPrivate = "private"
	ConversationGroup   = "group"
)

// Conversation 会话条目（派生数据，不落库）
// 由消息账本与群成员关系实时聚合得出
type Conversation struct {
	Type         string    `json:"type"` // private / group
	ID           int64     `json:"id"`   // 对端用户ID或群组ID
	Name         string    `json:"name"`
	LastMessage  string    `json:"lastMessage"`
	LastAt       time.Time `json:"lastAt"`
	LastSenderID int64     `json:"lastSenderId"`
}
