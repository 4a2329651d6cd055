package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// CatalogService 提供项目目录的只读查询。
type CatalogService struct {
	projectRepo repository.ProjectRepository
}

// NewCatalogService 创建 CatalogService 实例。
func NewCatalogService(projectRepo repository.ProjectRepository) *CatalogService {
	if projectRepo == nil {
		panic("projectRepo cannot be nil for CatalogService")
	}
	return &CatalogService{projectRepo: projectRepo}
}

// List 返回全部项目。
func (s *CatalogService) List(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list projects")
		return nil, ErrInternalServer
	}
	return projects, nil
}

// Get 按 ID 返回项目。
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		logrus.WithError(err).WithField("project_id", id).Error("Failed to look up project")
		return nil, ErrInternalServer
	}
	return project, nil
}
