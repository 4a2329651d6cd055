package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// GormActionRepository 是 ActionRepository 接口的 GORM 实现。
// 归档表只追加，房间历史回放不从这里读。
type GormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository 创建 GormActionRepository 实例
func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActionRepository")
	}
	return &GormActionRepository{db: db}
}

// SaveBatch 批量归档画板操作记录。
func (r *GormActionRepository) SaveBatch(ctx context.Context, actions []domain.DrawingAction) error {
	if len(actions) == 0 {
		return nil
	}

	// CreateInBatches 控制单条 INSERT 的行数，避免大批量触发数据库限制
	err := r.db.WithContext(ctx).CreateInBatches(&actions, 100).Error
	if err != nil {
		return fmt.Errorf("gorm: failed to save action batch (size %d): %w", len(actions), err)
	}
	return nil
}

// GetCountSince 统计指定房间在某时间点之后归档的操作数量。
func (r *GormActionRepository) GetCountSince(ctx context.Context, roomID string, timestamp time.Time) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).Model(&domain.DrawingAction{}).Where("room_id = ?", roomID)
	if !timestamp.IsZero() {
		query = query.Where("timestamp > ?", timestamp)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: failed to count actions for room %s since %v: %w", roomID, timestamp, err)
	}
	return count, nil
}
