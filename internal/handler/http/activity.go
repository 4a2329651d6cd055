package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/merge"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// ActivityHandler 暴露合并引擎的只读视图：项目文档、活动环和合并审计日志。
type ActivityHandler struct {
	engine       *merge.Engine
	mergeLogRepo repository.MergeLogRepository
}

// NewActivityHandler 创建 ActivityHandler 实例
func NewActivityHandler(engine *merge.Engine, mergeLogRepo repository.MergeLogRepository) *ActivityHandler {
	if engine == nil || mergeLogRepo == nil {
		panic("engine and mergeLogRepo cannot be nil for ActivityHandler")
	}
	return &ActivityHandler{engine: engine, mergeLogRepo: mergeLogRepo}
}

// GetDocument 处理 GET /api/projects/:id/document
func (h *ActivityHandler) GetDocument(c *gin.Context) {
	projectID := c.Param("id")
	doc, ok := h.engine.Document(projectID)
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "No document for project "+projectID)
		return
	}
	SuccessResponse(c, http.StatusOK, doc)
}

// GetActivity 处理 GET /api/projects/:id/activity
// 返回项目最近的编辑事件（最多 20 条），最旧的在前。
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	projectID := c.Param("id")
	SuccessResponse(c, http.StatusOK, gin.H{
		"project_id": projectID,
		"activity":   h.engine.Activity(projectID),
	})
}

// GetMerges 处理 GET /api/projects/:id/merges
func (h *ActivityHandler) GetMerges(c *gin.Context) {
	projectID := c.Param("id")
	entries, err := h.mergeLogRepo.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		logrus.WithError(err).WithField("project_id", projectID).Error("Failed to list merge log entries")
		ErrorResponse(c, http.StatusInternalServerError, "Failed to read merge log")
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"project_id": projectID,
		"merges":     entries,
	})
}
