package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"murmur.chat.web/internal/model"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

// AnnouncementRepository 公告数据访问
type AnnouncementRepository struct {
	db *pgxpool.Pool
}

// NewAnnouncementRepository 创建公告仓库
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create 创建公告
func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	query := `
		INSERT INTO announcements (id, title, content, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query, a.ID, a.Title, a.Content, a.AuthorID).Scan(&a.CreatedAt)
}

// List 列出公告，创建时间倒序
func (r *AnnouncementRepository) List(ctx context.Context) ([]*model.Announcement, error) {
	query := `
		SELECT id, title, content, author_id, created_at
		FROM announcements
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements []*model.Announcement
	for rows.Next() {
		a := &model.Announcement{}
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// Delete 删除公告
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}
