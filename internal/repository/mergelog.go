package repository

import (
	"context"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// MergeLogCap 是持久化合并日志保留的条目上限，超出时丢弃最旧的。
const MergeLogCap = 1000

// MergeLogRepository 定义了文档合并审计日志的持久化操作。
// 实现负责在每次追加后落盘（整文件重写，无增量格式）。
type MergeLogRepository interface {
	// Append 追加一条合并记录并立即持久化。
	// 超出 MergeLogCap 时由实现截断最旧的条目。
	Append(ctx context.Context, entry domain.MergeLogEntry) error

	// List 返回当前保留的全部合并记录，最旧的在前。
	List(ctx context.Context) ([]domain.MergeLogEntry, error)

	// ListByProject 返回指定项目的合并记录，最旧的在前。
	ListByProject(ctx context.Context, projectID string) ([]domain.MergeLogEntry, error)
}
