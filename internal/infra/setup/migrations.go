package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// MigrateDB 迁移数据库模式。需要建表的只有注册账号和操作归档，
// 房间和文档是进程内状态，不落库。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.DrawingAction{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
