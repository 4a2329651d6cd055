package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// VoteService 管理针对项目的投票：创建、提交一票、查询。
// 提交计数的正确性依赖存储实现的互斥，不在这里做乐观并发控制。
type VoteService struct {
	voteRepo    repository.VoteRepository
	projectRepo repository.ProjectRepository
}

// NewVoteService 创建 VoteService 实例。
func NewVoteService(voteRepo repository.VoteRepository, projectRepo repository.ProjectRepository) *VoteService {
	if voteRepo == nil || projectRepo == nil {
		panic("voteRepo and projectRepo cannot be nil for VoteService")
	}
	return &VoteService{voteRepo: voteRepo, projectRepo: projectRepo}
}

// Create 为指定项目创建一次投票。问题不能为空，选项至少两个。
func (s *VoteService) Create(ctx context.Context, projectID, question string, options []string, createdBy string) (*domain.Vote, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(options) < 2 {
		return nil, ErrInvalidVote
	}
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return nil, ErrInvalidVote
		}
	}

	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		logrus.WithError(err).WithField("project_id", projectID).Error("Failed to look up project for vote creation")
		return nil, ErrInternalServer
	}

	now := time.Now().UTC()
	vote := &domain.Vote{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Question:  question,
		Options:   options,
		Counts:    make([]int, len(options)),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.voteRepo.Save(ctx, vote); err != nil {
		logrus.WithError(err).WithField("vote_id", vote.ID).Error("Failed to save new vote")
		return nil, ErrInternalServer
	}

	logrus.WithFields(logrus.Fields{
		"vote_id":    vote.ID,
		"project_id": projectID,
		"created_by": createdBy,
	}).Info("Vote created")
	return vote, nil
}

// Submit 为指定选项计一票。下标越界返回 ErrInvalidVote。
func (s *VoteService) Submit(ctx context.Context, voteID string, optionIndex int) (*domain.Vote, error) {
	vote, err := s.voteRepo.FindByID(ctx, voteID)
	if err != nil {
		if errors.Is(err, repository.ErrVoteNotFound) {
			return nil, ErrVoteNotFound
		}
		logrus.WithError(err).WithField("vote_id", voteID).Error("Failed to look up vote for submission")
		return nil, ErrInternalServer
	}

	if optionIndex < 0 || optionIndex >= len(vote.Options) {
		return nil, ErrInvalidVote
	}
	vote.Counts[optionIndex]++
	vote.UpdatedAt = time.Now().UTC()

	if err := s.voteRepo.Save(ctx, vote); err != nil {
		logrus.WithError(err).WithField("vote_id", voteID).Error("Failed to save vote submission")
		return nil, ErrInternalServer
	}
	return vote, nil
}

// Get 按 ID 返回投票。
func (s *VoteService) Get(ctx context.Context, voteID string) (*domain.Vote, error) {
	vote, err := s.voteRepo.FindByID(ctx, voteID)
	if err != nil {
		if errors.Is(err, repository.ErrVoteNotFound) {
			return nil, ErrVoteNotFound
		}
		logrus.WithError(err).WithField("vote_id", voteID).Error("Failed to look up vote")
		return nil, ErrInternalServer
	}
	return vote, nil
}

// List 返回全部投票。
func (s *VoteService) List(ctx context.Context) ([]domain.Vote, error) {
	votes, err := s.voteRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list votes")
		return nil, ErrInternalServer
	}
	return votes, nil
}
