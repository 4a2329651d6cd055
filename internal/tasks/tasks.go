package tasks

import (
	"encoding/json"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
)

// 后台任务类型
const (
	// TypeActionArchive 把一条画板操作归档进数据库
	TypeActionArchive = "action:archive"
)

// ActionArchivePayload 是操作归档任务的载荷。
type ActionArchivePayload struct {
	Action domain.DrawingAction `json:"action"`
}

// NewActionArchivePayload 序列化一条操作归档任务的载荷。
func NewActionArchivePayload(action domain.DrawingAction) ([]byte, error) {
	return json.Marshal(ActionArchivePayload{Action: action})
}
