package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/middleware"
	"github.com/zhouBoom/M-server-node-003/internal/service"
)

// VoteHandler 封装投票相关的 HTTP 处理逻辑。
// 创建和提交需要登录（署名来自 JWT），查询开放给访客。
type VoteHandler struct {
	voteService *service.VoteService
}

// NewVoteHandler 创建 VoteHandler 实例
func NewVoteHandler(voteService *service.VoteService) *VoteHandler {
	if voteService == nil {
		panic("voteService cannot be nil for VoteHandler")
	}
	return &VoteHandler{voteService: voteService}
}

// CreateVoteRequest 定义创建投票请求的结构体
type CreateVoteRequest struct {
	ProjectID string   `json:"project_id" binding:"required"`
	Question  string   `json:"question" binding:"required"`
	Options   []string `json:"options" binding:"required,min=2"`
}

// CreateVote 处理 POST /api/votes
func (h *VoteHandler) CreateVote(c *gin.Context) {
	var req CreateVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateVote: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	createdBy := middleware.UsernameFromContext(c)
	vote, err := h.voteService.Create(c.Request.Context(), req.ProjectID, req.Question, req.Options, createdBy)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"vote_id":    vote.ID,
		"created_by": createdBy,
	}).Info("Handler.CreateVote: Vote created")
	SuccessResponse(c, http.StatusOK, vote)
}

// SubmitVoteRequest 定义提交一票的请求结构体
type SubmitVoteRequest struct {
	// OptionIndex 用指针区分 “缺字段” 和合法的下标 0
	OptionIndex *int `json:"option_index" binding:"required"`
}

// SubmitVote 处理 POST /api/votes/:id/submit
func (h *VoteHandler) SubmitVote(c *gin.Context) {
	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SubmitVote: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: option_index required")
		return
	}

	vote, err := h.voteService.Submit(c.Request.Context(), c.Param("id"), *req.OptionIndex)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, vote)
}

// GetVote 处理 GET /api/votes/:id
func (h *VoteHandler) GetVote(c *gin.Context) {
	vote, err := h.voteService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, vote)
}

// ListVotes 处理 GET /api/votes
func (h *VoteHandler) ListVotes(c *gin.Context) {
	votes, err := h.voteService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"votes": votes})
}
