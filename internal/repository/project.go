package repository

import (
	"context"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// ProjectRepository 定义了项目目录的只读查询。
// 目录来自静态或文件持久化的列表，core 不修改它。
type ProjectRepository interface {
	// List 返回全部项目。
	List(ctx context.Context) ([]domain.Project, error)

	// FindByID 按 ID 查找项目；未找到返回 ErrProjectNotFound。
	FindByID(ctx context.Context, id string) (*domain.Project, error)
}
