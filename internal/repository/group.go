package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murmur.chat.web/internal/model"
)

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

// GroupRepository 群组与成员数据访问
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository 创建群组仓库
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create 创建群组并原子地插入创建者成员记录
// 两个写入同一事务：不允许存在没有创建者成员的群组
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	groupQuery := `
		INSERT INTO groups (id, name, creator_id, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, groupQuery, group.ID, group.Name, group.CreatorID).Scan(&group.CreatedAt); err != nil {
		return err
	}

	memberQuery := `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, memberQuery, group.ID, group.CreatorID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindByID 根据 ID 查找群组（排除软删除）
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*model.Group, error) {
	query := `
		SELECT id, name, creator_id, is_active, created_at, deleted_at
		FROM groups WHERE id = $1 AND deleted_at IS NULL
	`
	group := &model.Group{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.CreatorID,
		&group.IsActive,
		&group.CreatedAt,
		&group.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// List 列出未删除的群组，ID 升序
func (r *GroupRepository) List(ctx context.Context) ([]*model.Group, error) {
	query := `
		SELECT id, name, creator_id, is_active, created_at, deleted_at
		FROM groups WHERE deleted_at IS NULL
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*model.Group
	for rows.Next() {
		group := &model.Group{}
		err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.CreatorID,
			&group.IsActive,
			&group.CreatedAt,
			&group.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// GetNamesByIDs 批量获取群组名称（会话列表的名称解析）
func (r *GroupRepository) GetNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query := `SELECT id, name FROM groups WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// AddMember 添加群成员
// 唯一约束吸收并发冲突：已存在时不报错也不重复插入
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	query := `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, groupID, userID)
	return err
}

// GetMember 获取成员记录
func (r *GroupRepository) GetMember(ctx context.Context, groupID, userID int64) (*model.GroupMember, error) {
	query := `
		SELECT group_id, user_id, created_at
		FROM group_members WHERE group_id = $1 AND user_id = $2
	`
	member := &model.GroupMember{}
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return member, nil
}

// IsMember 检查用户是否为群成员
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&exists)
	return exists, err
}

// RemoveMember 移除群成员
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, groupID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// ListMembers 列出群成员用户摘要，按加入顺序
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]model.UserBrief, error) {
	query := `
		SELECT u.id, u.name, u.email
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.created_at ASC, u.id ASC
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.UserBrief
	for rows.Next() {
		var b model.UserBrief
		if err := rows.Scan(&b.ID, &b.Name, &b.Email); err != nil {
			return nil, err
		}
		members = append(members, b)
	}
	return members, rows.Err()
}

// ListGroupIDsByUser 获取用户所属的群组 ID
func (r *GroupRepository) ListGroupIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT group_id FROM group_members WHERE user_id = $1`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groupIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, id)
	}
	return groupIDs, rows.Err()
}

// HardDelete 硬删除群组并级联清理
// 不可逆：消息、成员、入群申请、群组本体在同一事务内物理删除
// 与别处的软删除策略刻意不一致，保持参考行为
func (r *GroupRepository) HardDelete(ctx context.Context, groupID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM group_join_requests WHERE group_id = $1`, groupID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SetActive 设置群组启用状态
func (r *GroupRepository) SetActive(ctx context.Context, id int64, isActive bool) error {
	query := `UPDATE groups SET is_active = $2 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, isActive)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// SoftDelete 软删除群组
func (r *GroupRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE groups SET deleted_at = NOW(), is_active = FALSE WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// Restore 恢复软删除的群组
func (r *GroupRepository) Restore(ctx context.Context, id int64) error {
	query := `UPDATE groups SET deleted_at = NULL, is_active = TRUE WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrGroupNotFound
	}
	return nil
}
