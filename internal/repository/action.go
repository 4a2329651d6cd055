package repository

import (
	"context"
	"time"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// ActionRepository 定义了画板操作的持久化归档。
// 房间内存历史才是 drawing-history 回复的数据源，归档只用于审计，
// 由后台 worker 异步写入数据库。
type ActionRepository interface {
	// SaveBatch 批量保存操作记录。
	SaveBatch(ctx context.Context, actions []domain.DrawingAction) error

	// GetCountSince 统计指定房间在某时间点之后归档的操作数量。
	GetCountSince(ctx context.Context, roomID string, timestamp time.Time) (int64, error)
}
