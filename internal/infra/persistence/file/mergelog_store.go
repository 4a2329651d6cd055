// Package filestore 提供平面 JSON 记录文件的存储实现。
// 所有存储都在每次变更时整文件重写，没有增量追加格式；
// 写入是同步尽力而为的，失败不重试，由调用方记录降级。
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zhouBoom/M-server-node-003/internal/domain"
	"github.com/zhouBoom/M-server-node-003/internal/repository"
)

// MergeLogStore 是 MergeLogRepository 的文件实现。
// 内存中持有全部保留条目，追加时截断到 repository.MergeLogCap 后落盘。
type MergeLogStore struct {
	path    string
	mu      sync.Mutex
	entries []domain.MergeLogEntry
}

// NewMergeLogStore 打开（或初始化）合并日志文件。
// 文件不存在视为一份空日志，不是错误。
func NewMergeLogStore(path string) (*MergeLogStore, error) {
	if path == "" {
		panic("path cannot be empty for MergeLogStore")
	}
	s := &MergeLogStore{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to read merge log %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.entries); err != nil {
			return nil, fmt.Errorf("filestore: failed to parse merge log %s: %w", path, err)
		}
	}
	logrus.WithFields(logrus.Fields{
		"path":    path,
		"entries": len(s.entries),
	}).Info("Merge log store loaded")
	return s, nil
}

// Append 追加一条合并记录，截断到保留上限后整文件重写。
func (s *MergeLogStore) Append(ctx context.Context, entry domain.MergeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	if overflow := len(s.entries) - repository.MergeLogCap; overflow > 0 {
		s.entries = append(s.entries[:0:0], s.entries[overflow:]...)
	}
	return s.persist()
}

// List 返回当前保留的全部合并记录的副本，最旧的在前。
func (s *MergeLogStore) List(ctx context.Context) ([]domain.MergeLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MergeLogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// ListByProject 返回指定项目的合并记录，最旧的在前。
func (s *MergeLogStore) ListByProject(ctx context.Context, projectID string) ([]domain.MergeLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MergeLogEntry
	for _, entry := range s.entries {
		if entry.ProjectID == projectID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// persist 整文件重写。调用方必须已持有锁。
func (s *MergeLogStore) persist() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: failed to marshal merge log: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("filestore: failed to write merge log %s: %w", s.path, err)
	}
	return nil
}
