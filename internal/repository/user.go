package repository

import (
	"context"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// UserRepository 定义了注册账号的存储和检索操作。
type UserRepository interface {
	// FindByUsername 根据用户名查找用户；未找到返回 ErrUserNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID 根据用户 ID 查找用户；未找到返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save 保存用户。已存在（按 ID）则更新，否则创建。
	Save(ctx context.Context, user *domain.User) error
}
