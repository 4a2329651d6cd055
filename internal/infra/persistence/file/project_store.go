package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// ProjectStore 是 ProjectRepository 的文件实现。
// 项目目录在启动时加载一次，运行期间只读，因此不需要加锁。
type ProjectStore struct {
	projects []domain.Project
	byID     map[string]domain.Project
}

// NewProjectStore 加载项目目录文件。文件不存在视为空目录。
func NewProjectStore(path string) (*ProjectStore, error) {
	if path == "" {
		panic("path cannot be empty for ProjectStore")
	}
	s := &ProjectStore{byID: make(map[string]domain.Project)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.WithField("path", path).Warn("Project catalog file missing, starting with empty catalog")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to read project catalog %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.projects); err != nil {
			return nil, fmt.Errorf("filestore: failed to parse project catalog %s: %w", path, err)
		}
	}
	for _, p := range s.projects {
		s.byID[p.ID] = p
	}
	logrus.WithFields(logrus.Fields{
		"path":     path,
		"projects": len(s.projects),
	}).Info("Project catalog loaded")
	return s, nil
}

// List 返回全部项目。
func (s *ProjectStore) List(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

// FindByID 按 ID 查找项目。
func (s *ProjectStore) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	out := p
	return &out, nil
}
