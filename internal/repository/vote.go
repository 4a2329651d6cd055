package repository

import (
	"context"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// VoteRepository 定义了投票数据的持久化操作。
// 与合并日志一样由平面记录文件实现，每次变更整文件重写。
type VoteRepository interface {
	// Save 保存投票。已存在（按 ID）则覆盖，否则新增。
	Save(ctx context.Context, vote *domain.Vote) error

	// FindByID 按 ID 查找投票；未找到返回 ErrVoteNotFound。
	FindByID(ctx context.Context, id string) (*domain.Vote, error)

	// List 返回全部投票，按创建时间排序。
	List(ctx context.Context) ([]domain.Vote, error)
}
