package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
	"github.com/zhouBoom/M-server-node-003/internal/tasks"
)

// ActionArchiveHandler 处理画板操作的归档任务。
type ActionArchiveHandler struct {
	actionRepo repository.ActionRepository
}

// NewActionArchiveHandler 创建 Handler 实例
func NewActionArchiveHandler(actionRepo repository.ActionRepository) *ActionArchiveHandler {
	if actionRepo == nil {
		panic("actionRepo cannot be nil for ActionArchiveHandler")
	}
	return &ActionArchiveHandler{actionRepo: actionRepo}
}

// ProcessTask 实现 asynq.Handler 接口。
// 载荷损坏跳过重试；数据库写入失败交给 asynq 按退避策略重试。
func (h *ActionArchiveHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	retryCount, _ := asynq.GetRetryCount(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     retryCount,
	})

	var payload tasks.ActionArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.actionRepo.SaveBatch(ctx, []domain.DrawingAction{payload.Action}); err != nil {
		logCtx.WithError(err).WithField("action_id", payload.Action.ID).Error("Failed to archive action")
		return fmt.Errorf("failed to archive action %s: %w", payload.Action.ID, err)
	}

	logCtx.WithField("action_id", payload.Action.ID).Debug("Action archived")
	return nil
}
