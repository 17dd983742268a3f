package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murmur.chat.web/internal/model"
)

var ErrJoinRequestNotFound = errors.New("join request not found")

// JoinRequestRepository 入群申请数据访问
type JoinRequestRepository struct {
	db *pgxpool.Pool
}

// NewJoinRequestRepository 创建入群申请仓库
func NewJoinRequestRepository(db *pgxpool.Pool) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// CreateIfAbsent 创建 pending 申请
// 唯一约束收敛并发创建：冲突时放弃插入并返回已存在的那条
func (r *JoinRequestRepository) CreateIfAbsent(ctx context.Context, req *model.GroupJoinRequest) (*model.GroupJoinRequest, bool, error) {
	query := `
		INSERT INTO group_join_requests (id, group_id, user_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, req.ID, req.GroupID, req.UserID, req.Status).Scan(&req.CreatedAt)
	if err == nil {
		return req, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// 并发插入输掉了竞争，读取既有申请
	existing, err := r.Get(ctx, req.GroupID, req.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get 获取 (groupId, userId) 的申请
func (r *JoinRequestRepository) Get(ctx context.Context, groupID, userID int64) (*model.GroupJoinRequest, error) {
	query := `
		SELECT id, group_id, user_id, status, created_at
		FROM group_join_requests WHERE group_id = $1 AND user_id = $2
	`
	req := &model.GroupJoinRequest{}
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(
		&req.ID,
		&req.GroupID,
		&req.UserID,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// UpdateStatus 更新申请状态
func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE group_join_requests SET status = $2 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrJoinRequestNotFound
	}
	return nil
}

// ListByGroup 列出群组的申请及申请人摘要，创建时间倒序，可按状态过滤
func (r *JoinRequestRepository) ListByGroup(ctx context.Context, groupID int64, status string) ([]*model.JoinRequestWithUser, error) {
	query := `
		SELECT jr.id, jr.group_id, jr.user_id, jr.status, jr.created_at,
		       u.id, u.name, u.email
		FROM group_join_requests jr
		JOIN users u ON jr.user_id = u.id
		WHERE jr.group_id = $1 AND ($2 = '' OR jr.status = $2)
		ORDER BY jr.created_at DESC, jr.id DESC
	`
	rows, err := r.db.Query(ctx, query, groupID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*model.JoinRequestWithUser
	for rows.Next() {
		req := &model.JoinRequestWithUser{}
		err := rows.Scan(
			&req.ID,
			&req.GroupID,
			&req.UserID,
			&req.Status,
			&req.CreatedAt,
			&req.User.ID,
			&req.User.Name,
			&req.User.Email,
		)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
