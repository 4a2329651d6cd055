package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhouBoom/M-server-node-003/internal/service"
)

// CatalogHandler 封装项目目录的只读查询接口。
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler 实例
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	if catalogService == nil {
		panic("catalogService cannot be nil for CatalogHandler")
	}
	return &CatalogHandler{catalogService: catalogService}
}

// ListProjects 处理 GET /api/projects
func (h *CatalogHandler) ListProjects(c *gin.Context) {
	projects, err := h.catalogService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"projects": projects})
}

// GetProject 处理 GET /api/projects/:id
func (h *CatalogHandler) GetProject(c *gin.Context) {
	project, err := h.catalogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, project)
}
