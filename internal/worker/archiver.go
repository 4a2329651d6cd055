package worker

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/tasks"
)

// AsynqArchiver 把画板操作排入 asynq 队列，由 WorkerServer 异步落库。
// 实现了 hub 侧期望的归档接口。
type AsynqArchiver struct {
	client *asynq.Client
}

// NewAsynqArchiver 创建 AsynqArchiver 实例
func NewAsynqArchiver(client *asynq.Client) *AsynqArchiver {
	if client == nil {
		panic("asynq client cannot be nil for AsynqArchiver")
	}
	return &AsynqArchiver{client: client}
}

// EnqueueAction 把一条操作排入归档队列。
func (a *AsynqArchiver) EnqueueAction(action domain.DrawingAction) error {
	payload, err := tasks.NewActionArchivePayload(action)
	if err != nil {
		return fmt.Errorf("worker: failed to marshal action payload: %w", err)
	}
	task := asynq.NewTask(tasks.TypeActionArchive, payload, asynq.Queue("low"), asynq.MaxRetry(3))
	if _, err := a.client.Enqueue(task); err != nil {
		return fmt.Errorf("worker: failed to enqueue action archive task: %w", err)
	}
	return nil
}
