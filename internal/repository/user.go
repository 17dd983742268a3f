package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"murmur.chat.web/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

// UserRepository 用户数据访问
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, name, email, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.Role,
		user.IsActive,
	).Scan(&user.CreatedAt)
}

// GetByID 通过 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, name, email, role, is_active, created_at, deleted_at
		FROM users WHERE id = $1 AND deleted_at IS NULL
	`
	user := &model.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByUsername 通过用户名获取用户
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, name, email, role, is_active, created_at, deleted_at
		FROM users WHERE username = $1 AND deleted_at IS NULL
	`
	user := &model.User{}
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ExistsByUsername 检查用户名是否存在
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	return exists, err
}

// List 列出未删除的用户，ID 升序
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, username, password_hash, name, email, role, is_active, created_at, deleted_at
		FROM users WHERE deleted_at IS NULL
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.IsActive,
			&user.CreatedAt,
			&user.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetBriefsByIDs 批量获取用户摘要（会话列表的名称解析）
func (r *UserRepository) GetBriefsByIDs(ctx context.Context, ids []int64) (map[int64]model.UserBrief, error) {
	briefs := make(map[int64]model.UserBrief, len(ids))
	if len(ids) == 0 {
		return briefs, nil
	}

	query := `SELECT id, name, email FROM users WHERE id = ANY($1) AND deleted_at IS NULL`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b model.UserBrief
		if err := rows.Scan(&b.ID, &b.Name, &b.Email); err != nil {
			return nil, err
		}
		briefs[b.ID] = b
	}
	return briefs, rows.Err()
}

// UpdateName 更新用户显示名
func (r *UserRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE users SET name = $2 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.Exec(ctx, query, id, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive 设置用户启用状态
func (r *UserRepository) SetActive(ctx context.Context, id int64, isActive bool) error {
	query := `UPDATE users SET is_active = $2 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, isActive)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SoftDelete 软删除用户：设置 deleted_at 并停用
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) (*model.User, error) {
	query := `
		UPDATE users SET deleted_at = NOW(), is_active = FALSE
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, username, password_hash, name, email, role, is_active, created_at, deleted_at
	`
	user := &model.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Restore 恢复软删除的用户：清除 deleted_at 并重新启用
func (r *UserRepository) Restore(ctx context.Context, id int64) error {
	query := `UPDATE users SET deleted_at = NULL, is_active = TRUE WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
