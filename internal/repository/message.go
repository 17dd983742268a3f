package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murmur.chat.web/internal/model"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository 消息数据访问
// 消息账本只追加：内容不可变，之后仅允许设置 read_at / deleted_at
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息，delivered_at 随插入写入
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, group_id, content, delivered_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at, delivered_at
	`
	return r.db.QueryRow(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		msg.GroupID,
		msg.Content,
	).Scan(&msg.CreatedAt, &msg.DeliveredAt)
}

// FindByID 根据 ID 查找消息（排除软删除）
func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*model.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, group_id, content, created_at, delivered_at, read_at, deleted_at
		FROM messages WHERE id = $1 AND deleted_at IS NULL
	`
	msg := &model.Message{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.RecipientID,
		&msg.GroupID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.DeliveredAt,
		&msg.ReadAt,
		&msg.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

// ListPrivate 双向的私聊消息，(created_at, id) 升序
func (r *MessageRepository) ListPrivate(ctx context.Context, userID, peerID int64) ([]*model.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, group_id, content, created_at, delivered_at, read_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL
		  AND ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
		ORDER BY created_at ASC, id ASC
	`
	return r.queryMessages(ctx, query, userID, peerID)
}

// ListGroup 群聊消息，(created_at, id) 升序
func (r *MessageRepository) ListGroup(ctx context.Context, groupID int64) ([]*model.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, group_id, content, created_at, delivered_at, read_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL AND group_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.queryMessages(ctx, query, groupID)
}

// ListRecentPrivate 用户参与的最近私聊消息，(created_at, id) 倒序，窗口受 limit 约束
// 窗口之外的对端会话不会出现在聚合结果中，这是有意的有界查询
func (r *MessageRepository) ListRecentPrivate(ctx context.Context, userID int64, limit int) ([]*model.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, group_id, content, created_at, delivered_at, read_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL
		  AND recipient_id IS NOT NULL
		  AND (sender_id = $1 OR recipient_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryMessages(ctx, query, userID, limit)
}

// ListRecentGroups 一批群组的最近消息，(created_at, id) 倒序，窗口受 limit 约束
func (r *MessageRepository) ListRecentGroups(ctx context.Context, groupIDs []int64, limit int) ([]*model.Message, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, sender_id, recipient_id, group_id, content, created_at, delivered_at, read_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL AND group_id = ANY($1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryMessages(ctx, query, groupIDs, limit)
}

// MarkRead 设置 read_at，幂等：已读消息保持原时间戳不被覆盖
func (r *MessageRepository) MarkRead(ctx context.Context, id int64) (*model.Message, error) {
	query := `UPDATE messages SET read_at = NOW() WHERE id = $1 AND read_at IS NULL`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// SoftDeletePrivatePair 软删除两个用户之间双向的全部私聊消息，返回受影响条数
func (r *MessageRepository) SoftDeletePrivatePair(ctx context.Context, userAID, userBID int64) (int64, error) {
	query := `
		UPDATE messages SET deleted_at = NOW()
		WHERE deleted_at IS NULL
		  AND ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
	`
	result, err := r.db.Exec(ctx, query, userAID, userBID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *MessageRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*model.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		msg := &model.Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.GroupID,
			&msg.Content,
			&msg.CreatedAt,
			&msg.DeliveredAt,
			&msg.ReadAt,
			&msg.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
