package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// VoteStore 是 VoteRepository 的文件实现。
type VoteStore struct {
	path  string
	mu    sync.Mutex
	votes map[string]domain.Vote
}

// NewVoteStore 打开（或初始化）投票文件。文件不存在视为空存储。
func NewVoteStore(path string) (*VoteStore, error) {
	if path == "" {
		panic("path cannot be empty for VoteStore")
	}
	s := &VoteStore{path: path, votes: make(map[string]domain.Vote)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to read vote store %s: %w", path, err)
	}
	if len(raw) > 0 {
		var votes []domain.Vote
		if err := json.Unmarshal(raw, &votes); err != nil {
			return nil, fmt.Errorf("filestore: failed to parse vote store %s: %w", path, err)
		}
		for _, v := range votes {
			s.votes[v.ID] = v
		}
	}
	logrus.WithFields(logrus.Fields{
		"path":  path,
		"votes": len(s.votes),
	}).Info("Vote store loaded")
	return s, nil
}

// Save 新增或覆盖一条投票并整文件重写。
func (s *VoteStore) Save(ctx context.Context, vote *domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[vote.ID] = *vote
	return s.persist()
}

// FindByID 按 ID 查找投票。
func (s *VoteStore) FindByID(ctx context.Context, id string) (*domain.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[id]
	if !ok {
		return nil, repository.ErrVoteNotFound
	}
	out := vote
	return &out, nil
}

// List 返回全部投票，按创建时间排序。
func (s *VoteStore) List(ctx context.Context) ([]domain.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

func (s *VoteStore) sortedLocked() []domain.Vote {
	out := make([]domain.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *VoteStore) persist() error {
	raw, err := json.MarshalIndent(s.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: failed to marshal votes: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("filestore: failed to write vote store %s: %w", s.path, err)
	}
	return nil
}
