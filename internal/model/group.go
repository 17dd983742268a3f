package model

import "time"

// Group 群组实体
// 不变式：群组存在期间，creator 必定是成员（建群时原子插入成员记录）
type Group struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatorID int64      `json:"creatorId" db:"creator_id"`
	IsActive  bool       `json:"isActive" db:"is_active"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// GroupMember 群成员，(groupId, userId) 唯一
type GroupMember struct {
	GroupID   int64     `json:"groupId" db:"group_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// JoinRequestStatus 入群申请状态
// 状态机：none -> pending -> approved，approved 为终态
// 没有 rejected 状态：申请在被批准前一直保留
const (
	JoinStatusPending  = "pending"
	JoinStatusApproved = "approved"
)

// JoinStatusMember / JoinStatusNone 是查询状态时的派生值，不落库
const (
	JoinStatusMember = "member"
	JoinStatusNone   = "none"
)

// GroupJoinRequest 入群申请，(groupId, userId) 同一时刻至多一条
type GroupJoinRequest struct {
	ID        int64     `json:"id" db:"id"`
	GroupID   int64     `json:"groupId" db:"group_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// JoinRequestWithUser 入群申请及申请人摘要（列表展示用）
type JoinRequestWithUser struct {
	GroupJoinRequest
	User UserBrief `json:"user"`
}
